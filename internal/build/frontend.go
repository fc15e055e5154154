package build

import (
	"context"
	"fmt"
	"unicode/utf8"

	"gleam/internal/source"
)

// Frontend compiles one module and reports its outcomes. The real parser
// and type checker live upstream; the driver only depends on this seam.
type Frontend interface {
	CompileModule(ctx context.Context, path string, src []byte) ([]Warning, Error)
}

// FrontendFunc adapts a function to the Frontend interface.
type FrontendFunc func(ctx context.Context, path string, src []byte) ([]Warning, Error)

func (f FrontendFunc) CompileModule(ctx context.Context, path string, src []byte) ([]Warning, Error) {
	return f(ctx, path, src)
}

// EncodingFrontend is the minimal front end shipped with the toolchain.
// It rejects modules that are not valid UTF-8 and accepts everything else,
// leaving syntax and type analysis to the full front end.
type EncodingFrontend struct{}

func (EncodingFrontend) CompileModule(_ context.Context, path string, src []byte) ([]Warning, Error) {
	if !utf8.Valid(src) {
		off := invalidOffset(src)
		return nil, ParseError{
			Path:    path,
			Src:     string(src),
			Span:    source.NewSpan(off, off),
			Message: fmt.Sprintf("file is not valid UTF-8 (first invalid byte at offset %d)", off),
		}
	}
	return nil, nil
}

func invalidOffset(src []byte) uint32 {
	for i := 0; i < len(src); {
		r, size := utf8.DecodeRune(src[i:])
		if r == utf8.RuneError && size == 1 {
			return uint32(i)
		}
		i += size
	}
	return 0
}
