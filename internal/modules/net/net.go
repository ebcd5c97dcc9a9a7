// Package net exposes github.com/gorilla/websocket to script code as
// net.ws_dial, grounded directly on the teacher's
// internal/network.NetworkModule.WebSocketConnect/Send/Receive/Close
// (dial with a 10s handshake timeout, a buffered reader goroutine feeding
// a channel so receive can time out independently of the socket read),
// generalized from a security-scanning helper into the SPEC_FULL.md §1
// domain module: ws_dial(url) returning a socket Object with send/recv/
// close methods.
package net

import (
	"time"

	"github.com/gorilla/websocket"

	"emerald/internal/heap"
	"emerald/internal/module"
	"emerald/internal/nativefn"
	"emerald/internal/object"
)

func init() {
	module.RegisterNativeInit("net", New)
}

func New(h *heap.Heap, protos *object.Prototypes) *object.Object {
	mod := object.NewModule(h, protos.Module, "net", nil, true)

	nativefn.Def(h, protos, mod, "ws_dial", func(args []*object.Object, ctx object.NativeContext) (*object.Object, *object.Object) {
		if exc := nativefn.Arity(ctx, "net.ws_dial", args, 1, 1); exc != nil {
			return nil, exc
		}
		url, exc := nativefn.Str(ctx, args, 0, "net.ws_dial")
		if exc != nil {
			return nil, exc
		}
		dialer := websocket.DefaultDialer
		dialer.HandshakeTimeout = 10 * time.Second
		conn, _, err := dialer.Dial(url, nil)
		if err != nil {
			return nil, nativefn.Wrap(ctx, err)
		}
		return newSocket(ctx, conn), nil
	})

	return mod
}

func newSocket(ctx object.NativeContext, conn *websocket.Conn) *object.Object {
	s := object.New(ctx.Heap(), ctx.Protos().Object)

	msgs := make(chan []byte, 100)
	closed := make(chan struct{})
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				close(msgs)
				return
			}
			select {
			case msgs <- data:
			case <-closed:
				return
			}
		}
	}()

	nativefn.DefOn(ctx, s, "send", func(args []*object.Object, ctx object.NativeContext) (*object.Object, *object.Object) {
		if exc := nativefn.Arity(ctx, "Socket.send", args, 2, 2); exc != nil {
			return nil, exc
		}
		msg, exc := nativefn.Str(ctx, args, 1, "Socket.send")
		if exc != nil {
			return nil, exc
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			return nil, nativefn.Wrap(ctx, err)
		}
		return ctx.Protos().NullValue, nil
	})

	nativefn.DefOn(ctx, s, "recv", func(args []*object.Object, ctx object.NativeContext) (*object.Object, *object.Object) {
		timeout := 10 * time.Second
		if len(args) >= 2 && args[1].Kind == object.KindNumber {
			timeout = time.Duration(args[1].Num() * float64(time.Second))
		}
		select {
		case data, ok := <-msgs:
			if !ok {
				return nil, ctx.Raise("domain error", "recv on closed socket")
			}
			return nativefn.NewStr(ctx, string(data)), nil
		case <-time.After(timeout):
			return nil, ctx.Raise("domain error", "recv timeout")
		}
	})

	nativefn.DefOn(ctx, s, "close", func(args []*object.Object, ctx object.NativeContext) (*object.Object, *object.Object) {
		close(closed)
		if err := conn.Close(); err != nil {
			return nil, nativefn.Wrap(ctx, err)
		}
		return ctx.Protos().NullValue, nil
	})

	return s
}
