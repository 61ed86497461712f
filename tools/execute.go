package tools

import (
	"context"
	"reflect"
	"runtime/debug"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolbelt/chatmodel"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/toolbelt", "tools")

// Execute is the shared implementation of ITool.Execute:
// it validates args, runs the tool and converts a panic to the failure result.
// Run is never called with invalid input.
func Execute[I any, O Result](ctx context.Context, t Tool[I, O], chatCtx chatmodel.ChatContext, args any) (res Result, err error) {
	in, err := t.Validate(args)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			logger.ContextKV(ctx, xlog.ERROR,
				"tool", t.Name(),
				"reason", "panic",
				"err", r,
				"stack", string(debug.Stack()),
			)
			res = t.Failure(errors.Newf("tool %s failed unexpectedly", t.Name()))
			err = nil
		}
	}()

	out := t.Run(ctx, chatCtx, in)
	if isNil(out) {
		return t.Failure(errors.Newf("tool %s returned no result", t.Name())), nil
	}
	return out, nil
}

// Call executes the tool and returns the encoded result.
// The error is returned only when the arguments fail validation.
func Call(ctx context.Context, tool ITool, chatCtx chatmodel.ChatContext, args any) (string, error) {
	res, err := tool.Execute(ctx, chatCtx, args)
	if err != nil {
		return "", err
	}
	_, output, err := encodeResult(tool.Name(), res)
	if err != nil {
		logger.ContextKV(ctx, xlog.ERROR,
			"tool", tool.Name(),
			"reason", "encode",
			"err", err.Error(),
		)
	}
	return output, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
