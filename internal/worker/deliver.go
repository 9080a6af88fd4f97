package worker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/shaiso/Relay/internal/repo"
)

// deliver выполняет HTTP POST сохранённых параметров задачи на
// execute endpoint. Форма восстанавливает исходный dispatch-запрос:
// ключи и значения — как при постановке.
func (w *Worker) deliver(ctx context.Context, task *repo.Task) error {
	form := url.Values{}
	for key, value := range task.Params {
		form.Set(key, value)
	}

	endpoint := strings.TrimRight(w.target, "/") + task.Path

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrDeliveryFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	// Только 2xx подтверждает доставку.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d from %s", ErrDeliveryFailed, resp.StatusCode, endpoint)
	}
	return nil
}
