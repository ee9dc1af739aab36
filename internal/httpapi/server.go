// Package httpapi exposes the service's HTTP surface: a liveness probe, a
// synchronous digest endpoint, and the two Slack slash-command routes that
// acknowledge immediately and deliver later.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fernwood/slackbrief/internal/digest"
	"github.com/fernwood/slackbrief/internal/dispatch"
)

const ackText = "Got it. Generating your summary, it will arrive here shortly."

type Options struct {
	Logger        *slog.Logger
	SelfUserID    string
	DigestDMs     func(ctx context.Context, days int, peerUserID string) digest.Report
	DigestChannel func(ctx context.Context, channelID string, days int) digest.Report
	Coordinator   *dispatch.Coordinator
}

type summarizeRequest struct {
	Days int    `json:"days"`
	Type string `json:"type"`
}

type summarizeResponse struct {
	Message string `json:"message"`
	Summary string `json:"summary"`
}

func RegisterRoutes(mux *http.ServeMux, opts Options) {
	if mux == nil {
		return
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		switch r.Method {
		case http.MethodGet, http.MethodHead:
		default:
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"service": "slackbrief",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/summarize-my-chats", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if opts.DigestDMs == nil {
			http.Error(w, "digest is unavailable", http.StatusServiceUnavailable)
			return
		}
		var req summarizeRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		report := opts.DigestDMs(r.Context(), req.Days, req.Type)
		logger.Info("sync_digest_done",
			"messages", report.MessageCount,
			"summary_kind", string(report.Summary.Kind),
		)
		writeJSON(w, http.StatusOK, summarizeResponse{
			Message: "Summary generated",
			Summary: report.Body,
		})
	})

	mux.HandleFunc("/slack/my-summary", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if opts.Coordinator == nil || opts.DigestDMs == nil {
			http.Error(w, "digest is unavailable", http.StatusServiceUnavailable)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		userID := strings.TrimSpace(r.FormValue("user_id"))
		if userID == "" {
			userID = strings.TrimSpace(opts.SelfUserID)
		}
		if userID == "" {
			http.Error(w, "missing user_id", http.StatusBadRequest)
			return
		}
		days := parseDaysToken(r.FormValue("text"))

		// The acknowledgment must go out before any fetch or completion
		// call starts; Dispatch only schedules work.
		writeJSON(w, http.StatusOK, dispatch.Envelope{
			ResponseType: "ephemeral",
			Text:         ackText,
		})
		opts.Coordinator.Dispatch(dispatch.Target{UserID: userID}, func(ctx context.Context) (string, error) {
			report := opts.DigestDMs(ctx, days, "all")
			return report.Body, nil
		})
	})

	mux.HandleFunc("/slack/summarize", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if opts.Coordinator == nil || opts.DigestChannel == nil {
			http.Error(w, "digest is unavailable", http.StatusServiceUnavailable)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		channelID := strings.TrimSpace(r.FormValue("channel_id"))
		if channelID == "" {
			http.Error(w, "missing channel_id", http.StatusBadRequest)
			return
		}
		days := parseDaysToken(r.FormValue("text"))
		responseURL := strings.TrimSpace(r.FormValue("response_url"))
		requesterID := strings.TrimSpace(r.FormValue("user_id"))

		writeJSON(w, http.StatusOK, dispatch.Envelope{
			ResponseType: "ephemeral",
			Text:         ackText,
		})
		opts.Coordinator.Dispatch(dispatch.Target{
			CallbackURL: responseURL,
			ChannelID:   channelID,
			UserID:      requesterID,
		}, func(ctx context.Context) (string, error) {
			report := opts.DigestChannel(ctx, channelID, days)
			return report.Body, nil
		})
	})
}

type ServerOptions struct {
	Listen string
	Routes Options
}

func StartServer(ctx context.Context, logger *slog.Logger, opts ServerOptions) (*http.Server, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = slog.Default()
	}
	listen := strings.TrimSpace(opts.Listen)
	if listen == "" {
		return nil, errors.New("empty listen address")
	}

	mux := http.NewServeMux()
	RegisterRoutes(mux, opts.Routes)

	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error", "addr", listen, "error", err.Error())
		}
	}()

	logger.Info("http_server_start", "addr", listen)
	return srv, nil
}

// parseDaysToken reads the leading token of a slash-command text argument as
// a day count. Anything unusable falls back to 1.
func parseDaysToken(text string) int {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 1
	}
	days, err := strconv.Atoi(fields[0])
	if err != nil || days <= 0 {
		return 1
	}
	return days
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
