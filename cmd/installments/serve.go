package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/cloud-ru/installments-go/internal/tools"
	"github.com/sirupsen/logrus"
)

// maxRequestSize максимальная длина одной строки запроса
const maxRequestSize = 4 << 20

type request struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Tool   string          `json:"tool"`
	Params tools.Params    `json:"params"`
}

type response struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Result interface{}     `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// serve читает запросы по одному JSON-объекту на строку и пишет ответ
// на каждый. Запрос {"tool": "tools"} возвращает список инструментов.
func serve(ctx context.Context, in io.Reader, out io.Writer, registry map[string]tools.ToolHandler, log logrus.FieldLogger) error {
	return serveLines(ctx, in, out, registry, log, maxRequestSize)
}

// serveLines как serve; на строку длиннее limit отвечает ошибкой и продолжает
func serveLines(ctx context.Context, in io.Reader, out io.Writer, registry map[string]tools.ToolHandler, log logrus.FieldLogger, limit int) error {
	reader := bufio.NewReaderSize(in, 64*1024)
	enc := json.NewEncoder(out)

	for {
		line, tooLong, err := readLine(reader, limit)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read request: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !tooLong && len(line) == 0 {
			continue
		}

		var resp response
		if tooLong {
			resp = response{Error: fmt.Sprintf("request exceeds %d bytes", limit)}
		} else {
			resp = dispatch(ctx, line, registry)
		}
		if resp.Error != "" {
			log.WithField("error", resp.Error).Debug("request failed")
		}
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
}

// readLine читает строку целиком. Если строка длиннее limit, остаток
// пропускается и возвращается tooLong.
func readLine(r *bufio.Reader, limit int) (line []byte, tooLong bool, err error) {
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) && (len(line) > 0 || tooLong) {
				return line, tooLong, nil
			}
			return nil, false, err
		}
		if !tooLong {
			if len(line)+len(chunk) > limit {
				tooLong = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}
		if !isPrefix {
			return line, tooLong, nil
		}
	}
}

func dispatch(ctx context.Context, line []byte, registry map[string]tools.ToolHandler) response {
	var req request
	if err := json.Unmarshal(line, &req); err != nil {
		return response{Error: fmt.Sprintf("malformed request: %v", err)}
	}
	if req.Tool == "tools" {
		return response{ID: req.ID, Result: tools.Names(registry)}
	}

	handler, ok := registry[req.Tool]
	if !ok {
		return response{ID: req.ID, Error: fmt.Sprintf("unknown tool %q", req.Tool)}
	}
	if req.Params == nil {
		req.Params = tools.Params{}
	}

	result, err := handler(ctx, req.Params)
	if err != nil {
		return response{ID: req.ID, Error: err.Error()}
	}
	return response{ID: req.ID, Result: result}
}
