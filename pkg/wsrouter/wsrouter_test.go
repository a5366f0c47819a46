package wsrouter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	in  []string
	out []any
}

func (c *fakeConn) ReadJSON(v any) error {
	if len(c.in) == 0 {
		return io.EOF
	}
	raw := c.in[0]
	c.in = c.in[1:]

	// decode the way gorilla's ReadJSON does
	err := json.NewDecoder(strings.NewReader(raw)).Decode(v)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}

	return err
}

func (c *fakeConn) WriteJSON(v any) error {
	c.out = append(c.out, v)
	return nil
}

type echoInput struct {
	Text string `json:"text"`
}

func TestServeConn(t *testing.T) {
	r := New()

	var order []string
	r.Use(func(next HandlerFunc[any]) HandlerFunc[any] {
		return func(ctx context.Context, conn Conn, payload any) error {
			order = append(order, "mw:"+GetMessageTypeFromCtx(ctx))
			return next(ctx, conn, payload)
		}
	})

	var errs []error
	r.OnError(func(_ context.Context, _ Conn, err error) {
		errs = append(errs, err)
	})

	Handle(r, "echo", func(_ context.Context, conn Conn, input echoInput) error {
		order = append(order, "echo:"+input.Text)
		return conn.WriteJSON(input.Text)
	})
	Handle(r, "fail", func(context.Context, Conn, struct{}) error {
		return errors.New("boom")
	})
	Handle(r, "panic", func(context.Context, Conn, struct{}) error {
		panic("oops")
	})

	conn := &fakeConn{in: []string{
		`{"type":"echo","payload":{"text":"hi"}}`,
		`{"type":"missing","payload":{}}`,
		`{"type":"fail"}`,
		`{"type":"echo","payload":{"text":5}}`,
		`{"type":"panic","payload":null}`,
		`not json`,
		`{`,
		``,
		`{"type":"echo","payload":{"text":"bye"}}`,
	}}

	err := r.ServeConn(context.Background(), conn)
	require.ErrorIs(t, err, io.EOF)

	assert.Equal(t, []any{"hi", "bye"}, conn.out)
	assert.Equal(t, []string{"mw:echo", "echo:hi", "mw:fail", "mw:panic", "mw:echo", "echo:bye"}, order)

	require.Len(t, errs, 7)
	assert.ErrorIs(t, errs[0], ErrUnknownMessageType)
	assert.EqualError(t, errs[1], "boom")
	assert.Contains(t, errs[2].Error(), "failed to decode echo payload")
	assert.Contains(t, errs[3].Error(), "panic in panic handler")
	assert.Contains(t, errs[4].Error(), "failed to decode message")
	assert.ErrorIs(t, errs[5], io.ErrUnexpectedEOF)
	assert.ErrorIs(t, errs[6], io.ErrUnexpectedEOF)
}
