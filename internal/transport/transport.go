// Package transport describes the outbound chat primitives the relay needs.
package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Affordance is an interactive button attached to an outbound message.
// Action selects the handler and Payload carries its argument.
type Affordance struct {
	Label   string
	Action  string
	Payload string
}

// Kind is the payload type of a Content.
type Kind string

const (
	KindText     Kind = "text"
	KindPhoto    Kind = "photo"
	KindVideo    Kind = "video"
	KindVoice    Kind = "voice"
	KindDocument Kind = "document"
)

// Content is a relayable message body. Media kinds reference an already
// uploaded file by FileID.
type Content struct {
	Kind    Kind
	Text    string
	FileID  string
	Caption string
}

// ErrEmptyContent is returned by Validate for content with nothing to send.
var ErrEmptyContent = errors.New("transport: empty content")

// Validate reports whether c can be delivered.
func (c Content) Validate() error {
	switch c.Kind {
	case KindText:
		if strings.TrimSpace(c.Text) == "" {
			return ErrEmptyContent
		}
		return nil
	case KindPhoto, KindVideo, KindVoice, KindDocument:
		if strings.TrimSpace(c.FileID) == "" {
			return fmt.Errorf("%w: %s without file id", ErrEmptyContent, c.Kind)
		}
		return nil
	case "":
		return ErrEmptyContent
	}
	return fmt.Errorf("transport: unsupported kind %q", c.Kind)
}

// Transport delivers messages to chat recipients.
type Transport interface {
	// SendText delivers text synchronously and returns a *DeliveryError on failure.
	SendText(ctx context.Context, to int64, text string, affordances ...Affordance) error
	// SendContent delivers text or media synchronously.
	SendContent(ctx context.Context, to int64, content Content) error
	// Notify sends text without waiting for the outcome.
	Notify(ctx context.Context, to int64, text string, affordances ...Affordance)
}

// DeliveryError records a failed send to one recipient.
type DeliveryError struct {
	Recipient int64
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to %d: %v", e.Recipient, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Fail wraps err into a *DeliveryError unless it already is one.
func Fail(to int64, err error) error {
	if err == nil {
		return nil
	}
	var de *DeliveryError
	if errors.As(err, &de) {
		return err
	}
	return &DeliveryError{Recipient: to, Err: err}
}
