package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	pollTimeout   = 30 * time.Second // server-side hold on getUpdates
	pollRetryWait = 5 * time.Second
)

// CommandHandler turns one user command into a reply. An empty reply
// sends nothing.
type CommandHandler func(command string) string

type update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

// StartPolling long-polls getUpdates and dispatches commands until ctx
// is cancelled. Only messages from the configured chat are handled;
// anything else is dropped.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	// Long-poll requests are held open longer than a send is allowed to
	// take, so they get their own client on the same transport.
	client := &http.Client{
		Timeout:   pollTimeout + 5*time.Second,
		Transport: t.Client.Transport,
	}

	var offset int64
	for ctx.Err() == nil {
		updates, err := t.fetchUpdates(ctx, client, offset)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Printf("[WARN] telegram poll: %v", err)
			select {
			case <-ctx.Done():
			case <-time.After(pollRetryWait):
			}
			continue
		}
		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			t.dispatch(ctx, u, handler)
		}
	}
	log.Println("[INFO] telegram polling stopped")
}

func (t *TelegramNotifier) fetchUpdates(ctx context.Context, client *http.Client, offset int64) ([]update, error) {
	q := url.Values{}
	q.Set("offset", strconv.FormatInt(offset, 10))
	q.Set("timeout", strconv.Itoa(int(pollTimeout/time.Second)))
	u := fmt.Sprintf("%s/bot%s/getUpdates?%s", t.baseURL(), t.BotToken, q.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("getUpdates: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read getUpdates: %w", err)
	}
	var env apiResponse
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode getUpdates: status %d, body %s", resp.StatusCode, body)
	}
	if !env.OK {
		return nil, fmt.Errorf("getUpdates: %s (status %d)", env.Description, resp.StatusCode)
	}
	var updates []update
	if err := json.Unmarshal(env.Result, &updates); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}
	return updates, nil
}

func (t *TelegramNotifier) dispatch(ctx context.Context, u update, handler CommandHandler) {
	if u.Message == nil || u.Message.Text == "" {
		return
	}
	if id := strconv.FormatInt(u.Message.Chat.ID, 10); t.ChatID != "" && id != t.ChatID {
		log.Printf("[WARN] ignoring command from chat %s", id)
		return
	}
	text := strings.TrimSpace(u.Message.Text)
	log.Printf("[INFO] received command: %s", text)
	if reply := handler(text); reply != "" {
		if err := t.Send(ctx, reply); err != nil {
			log.Printf("[ERROR] send reply: %v", err)
		}
	}
}
