// Package builtin provides the commands every run has available.
package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/roach88/tester/internal/command"
	"github.com/roach88/tester/internal/env"
	"github.com/roach88/tester/internal/value"
)

// Command names.
const (
	Echo    = "echo"
	Fail    = "fail"
	Env     = "env"
	Sleep   = "sleep"
	HTTPGet = "http.get"
)

// maxBody caps how much of a response http.get reads.
const maxBody = 10 << 20

// Commands returns the builtin commands. e backs the env command; client
// defaults to http.DefaultClient.
func Commands(e *env.Env, client *http.Client) []command.Command {
	if client == nil {
		client = http.DefaultClient
	}
	return []command.Command{
		{Name: Echo, Handler: echo},
		{Name: Fail, Handler: fail},
		{Name: Env, Handler: lookupEnv(e)},
		{Name: Sleep, Handler: sleep},
		{Name: HTTPGet, Handler: httpGet(client)},
	}
}

func echo(_ context.Context, input any) (any, error) {
	return input, nil
}

// fail raises its input. A string becomes the message; an object with
// "message" and "payload" yields a structured error.
func fail(_ context.Context, input any) (any, error) {
	switch in := value.MustNormalize(input).(type) {
	case string:
		return nil, command.NewError(in)
	case map[string]any:
		msg, _ := in["message"].(string)
		if p, ok := in["payload"]; ok {
			return nil, command.NewPayloadError(msg, p)
		}
		return nil, command.NewError(msg)
	}
	if value.IsUndefined(input) {
		return nil, command.NewError("")
	}
	return nil, command.NewError(value.Format(input))
}

func lookupEnv(e *env.Env) command.Handler {
	return func(_ context.Context, input any) (any, error) {
		key, ok := input.(string)
		if !ok {
			return nil, fmt.Errorf("env: input must be a key string, got %s", value.TypeOf(input))
		}
		if v, ok := e.Lookup(key); ok {
			return v, nil
		}
		return value.Undefined, nil
	}
}

// sleep waits for input milliseconds or until ctx is done.
func sleep(ctx context.Context, input any) (any, error) {
	ms, ok := value.ToFloat(input)
	if !ok || ms < 0 {
		return nil, fmt.Errorf("sleep: input must be a non-negative number of milliseconds, got %s", value.Format(input))
	}
	timer := time.NewTimer(time.Duration(ms * float64(time.Millisecond)))
	defer timer.Stop()
	select {
	case <-timer.C:
		return value.Undefined, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// httpGet fetches a URL. Input is the URL or {url, headers}. The result is
// {status, headers, body}; JSON bodies are decoded, others kept as text.
func httpGet(client *http.Client) command.Handler {
	return func(ctx context.Context, input any) (any, error) {
		url, headers, err := requestInput(input)
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("http.get: %w", err)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("http.get %s: %w", url, err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
		if err != nil {
			return nil, fmt.Errorf("http.get %s: read body: %w", url, err)
		}

		respHeaders := make(map[string]any, len(resp.Header))
		for k := range resp.Header {
			respHeaders[strings.ToLower(k)] = resp.Header.Get(k)
		}
		return map[string]any{
			"status":  float64(resp.StatusCode),
			"headers": respHeaders,
			"body":    decodeBody(resp.Header.Get("Content-Type"), data),
		}, nil
	}
}

func requestInput(input any) (string, map[string]string, error) {
	switch in := value.MustNormalize(input).(type) {
	case string:
		return in, nil, nil
	case map[string]any:
		url, ok := in["url"].(string)
		if !ok {
			return "", nil, fmt.Errorf("http.get: input needs a url string")
		}
		headers := map[string]string{}
		if h, ok := in["headers"].(map[string]any); ok {
			for k, v := range h {
				headers[k] = fmt.Sprint(v)
			}
		}
		return url, headers, nil
	}
	return "", nil, fmt.Errorf("http.get: input must be a URL or an object, got %s", value.TypeOf(input))
}

func decodeBody(contentType string, data []byte) any {
	mt, _, _ := mime.ParseMediaType(contentType)
	if mt == "application/json" || strings.HasSuffix(mt, "+json") {
		var v any
		if err := json.Unmarshal(data, &v); err == nil {
			return v
		}
	}
	return string(data)
}
