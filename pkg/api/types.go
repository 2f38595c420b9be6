package api

import (
	"github.com/membrane-io/user/pkg/models"
)

// TellRequest is the body of POST /v1/tell.
type TellRequest struct {
	Message     string         `json:"message"`
	Node        models.NodeRef `json:"node,omitempty"`
	Channel     string         `json:"channel,omitempty"`
	ChannelName string         `json:"channel_name,omitempty"`
}

// AskRequest is the body of POST /v1/ask.
type AskRequest struct {
	Question    string         `json:"question"`
	Node        models.NodeRef `json:"node,omitempty"`
	Channel     string         `json:"channel,omitempty"`
	ChannelName string         `json:"channel_name,omitempty"`
}

// AskResponse carries the responder's answer.
type AskResponse struct {
	Answer string `json:"answer"`
}

// InboundReply is the body of POST /v1/inbound. ReplyText is the reply
// without quoted history; Text is used when it is empty.
type InboundReply struct {
	Subject   string `json:"subject"`
	Text      string `json:"text"`
	ReplyText string `json:"replyText,omitempty"`
}

// InboundResult reports whether the reply answered a question.
type InboundResult struct {
	Matched  bool             `json:"matched"`
	Response *models.Envelope `json:"response,omitempty"`
}

// ThreadTellRequest is the body of POST /v1/threads/{id}/tell.
type ThreadTellRequest struct {
	Message string         `json:"message"`
	Node    models.NodeRef `json:"node,omitempty"`
}

// RespondRequest is the body of POST /v1/messages/{mid}/respond.
type RespondRequest struct {
	Text string `json:"text"`
}
