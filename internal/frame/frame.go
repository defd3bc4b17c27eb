// Package frame implements the textual datagram protocol:
//
//	HELLO:<nickname>
//	MSG:<id>:<payload>
//	ACK:<id>
//
// A Message is split on its first two colons only, so the payload may contain colons.
package frame

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type Kind int

const (
	KindHello Kind = iota + 1
	KindMessage
	KindAck
)

const (
	helloPrefix   = "HELLO:"
	messagePrefix = "MSG:"
	ackPrefix     = "ACK:"
)

var (
	ErrMalformed   = errors.New("malformed frame")
	ErrUnknownKind = errors.New("unknown frame kind")
)

func (k Kind) String() string {
	switch k {
	case KindHello:
		return "hello"
	case KindMessage:
		return "message"
	case KindAck:
		return "ack"
	default:
		return "unknown"
	}
}

// Frame is one protocol unit. Only the fields of its Kind are meaningful.
type Frame struct {
	Kind     Kind
	Nickname string
	ID       uint64
	Payload  string
}

func Hello(nickname string) Frame {
	return Frame{Kind: KindHello, Nickname: nickname}
}

func Message(id uint64, payload string) Frame {
	return Frame{Kind: KindMessage, ID: id, Payload: payload}
}

func Ack(id uint64) Frame {
	return Frame{Kind: KindAck, ID: id}
}

func (f Frame) Encode() []byte {
	switch f.Kind {
	case KindHello:
		return []byte(helloPrefix + f.Nickname)
	case KindMessage:
		return []byte(messagePrefix + strconv.FormatUint(f.ID, 10) + ":" + f.Payload)
	case KindAck:
		return []byte(ackPrefix + strconv.FormatUint(f.ID, 10))
	default:
		return nil
	}
}

func (f Frame) String() string {
	return string(f.Encode())
}

// Parse decodes one datagram. Invalid UTF-8 is replaced rather than rejected.
func Parse(data []byte) (Frame, error) {
	msg := strings.ToValidUTF8(string(data), "�")

	switch {
	case strings.HasPrefix(msg, helloPrefix):
		return Hello(strings.TrimPrefix(msg, helloPrefix)), nil

	case strings.HasPrefix(msg, messagePrefix):
		parts := strings.SplitN(msg, ":", 3)
		if len(parts) != 3 {
			return Frame{}, fmt.Errorf("%w: message needs 3 fields, got %d", ErrMalformed, len(parts))
		}
		id, err := parseID(parts[1])
		if err != nil {
			return Frame{}, err
		}
		return Message(id, parts[2]), nil

	case strings.HasPrefix(msg, ackPrefix):
		id, err := parseID(strings.TrimPrefix(msg, ackPrefix))
		if err != nil {
			return Frame{}, err
		}
		return Ack(id), nil
	}

	return Frame{}, ErrUnknownKind
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad id %q", ErrMalformed, s)
	}
	return id, nil
}
