// Package crypto wires golang.org/x/crypto's bcrypt alongside stdlib
// crypto/sha256, giving the native calling convention (spec.md §6) a
// concrete non-stdlib-only module (SPEC_FULL.md §1's domain stack table).
// The teacher's go.mod already carries golang.org/x/crypto, but only as an
// indirect, unused transitive dependency; nothing in original_source or
// the rest of the pack hashes or digests either, so there is no in-pack
// call site to mirror. This module is the one SPEC_FULL.md component that
// gives that dependency an actual import, promoting it from indirect to
// direct: Hash for storage, Check for comparison, no bespoke password
// scheme invented on top.
package crypto

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"

	"emerald/internal/heap"
	"emerald/internal/module"
	"emerald/internal/nativefn"
	"emerald/internal/object"
)

func init() {
	module.RegisterNativeInit("crypto", New)
}

func New(h *heap.Heap, protos *object.Prototypes) *object.Object {
	mod := object.NewModule(h, protos.Module, "crypto", nil, true)

	nativefn.Def(h, protos, mod, "sha256", func(args []*object.Object, ctx object.NativeContext) (*object.Object, *object.Object) {
		if exc := nativefn.Arity(ctx, "crypto.sha256", args, 1, 1); exc != nil {
			return nil, exc
		}
		s, exc := nativefn.Str(ctx, args, 0, "crypto.sha256")
		if exc != nil {
			return nil, exc
		}
		sum := sha256.Sum256([]byte(s))
		return nativefn.NewStr(ctx, hex.EncodeToString(sum[:])), nil
	})

	nativefn.Def(h, protos, mod, "bcrypt_hash", func(args []*object.Object, ctx object.NativeContext) (*object.Object, *object.Object) {
		if exc := nativefn.Arity(ctx, "crypto.bcrypt_hash", args, 1, 1); exc != nil {
			return nil, exc
		}
		s, exc := nativefn.Str(ctx, args, 0, "crypto.bcrypt_hash")
		if exc != nil {
			return nil, exc
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(s), bcrypt.DefaultCost)
		if err != nil {
			return nil, nativefn.Wrap(ctx, err)
		}
		return nativefn.NewStr(ctx, string(hashed)), nil
	})

	nativefn.Def(h, protos, mod, "bcrypt_check", func(args []*object.Object, ctx object.NativeContext) (*object.Object, *object.Object) {
		if exc := nativefn.Arity(ctx, "crypto.bcrypt_check", args, 2, 2); exc != nil {
			return nil, exc
		}
		s, exc := nativefn.Str(ctx, args, 0, "crypto.bcrypt_check")
		if exc != nil {
			return nil, exc
		}
		hash, exc := nativefn.Str(ctx, args, 1, "crypto.bcrypt_check")
		if exc != nil {
			return nil, exc
		}
		err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(s))
		return nativefn.NewBool(ctx, err == nil), nil
	})

	return mod
}
