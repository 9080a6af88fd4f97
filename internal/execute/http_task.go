package execute

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const defaultHTTPTimeout = 30 * time.Second

// ErrHTTPRequest — HTTP-запрос встроенной задачи завершился ошибкой.
var ErrHTTPRequest = errors.New("http request failed")

// HTTPTaskType — тип встроенной задачи «сделать HTTP-запрос».
const HTTPTaskType = "http.request"

// HTTPTask — встроенный TaskHandler для вебхуков и обратных вызовов.
//
// Параметры задачи:
//   - url (обязательно) — адрес запроса
//   - method — HTTP-метод, default GET
//   - body — тело запроса (как есть)
//   - content_type — Content-Type тела
//   - timeout_sec — таймаут запроса в секундах, default 30
//
// Ответ со статусом >= 400 считается ошибкой выполнения.
type HTTPTask struct {
	// Client — HTTP-клиент (default: http.DefaultClient).
	Client *http.Client
}

// Execute выполняет HTTP-запрос по параметрам задачи.
func (t *HTTPTask) Execute(ctx context.Context, params map[string]string) error {
	target := params["url"]
	if target == "" {
		return fmt.Errorf("%w: url is required", ErrHTTPRequest)
	}

	method := params["method"]
	if method == "" {
		method = http.MethodGet
	}

	timeout := defaultHTTPTimeout
	if raw := params["timeout_sec"]; raw != "" {
		if sec, err := strconv.Atoi(raw); err == nil && sec > 0 {
			timeout = time.Duration(sec) * time.Second
		}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if raw := params["body"]; raw != "" {
		body = strings.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrHTTPRequest, err)
	}
	if ct := params["content_type"]; ct != "" {
		req.Header.Set("Content-Type", ct)
	}

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHTTPRequest, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: status %d from %s", ErrHTTPRequest, resp.StatusCode, target)
	}
	return nil
}
