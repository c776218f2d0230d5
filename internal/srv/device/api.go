package device

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jypelle/ledmatrix/apimodel"
	"github.com/jypelle/ledmatrix/internal/protocol"
	"github.com/jypelle/ledmatrix/internal/srv/config"
	"github.com/jypelle/ledmatrix/internal/srv/event"
	"github.com/jypelle/ledmatrix/internal/tool"
	"github.com/sirupsen/logrus"
	"nhooyr.io/websocket"
)

const (
	maxStreamBody         = 1 << 16
	websocketWriteTimeout = 5 * time.Second
)

type Api struct {
	eventChannel chan event.ApiEvent

	router    *mux.Router
	apiRouter *mux.Router
	server    *http.Server

	config *config.ServerConfig

	askDone chan bool
}

// ErrApiStopped is returned for requests arriving after the api device stopped.
var ErrApiStopped = errors.New("api device stopped")

func NewApi(config *config.ServerConfig) *Api {
	api := Api{
		config:       config,
		eventChannel: make(chan event.ApiEvent),
		askDone:      make(chan bool),
	}

	api.router = mux.NewRouter().StrictSlash(false)

	// API Routes
	api.apiRouter = api.router.PathPrefix("/api").Subrouter()
	api.apiRouter.NotFoundHandler = http.HandlerFunc(ErrorNotFoundAction)
	api.apiRouter.MethodNotAllowedHandler = http.HandlerFunc(ErrorMethodNotAllowedAction)

	// Auth middleware
	api.apiRouter.Use(
		func(handler http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer func() {
					if rec := recover(); rec != nil {
						logrus.Warningf("recovered from panic : [%v] - stack trace : \n [%s]", rec, debug.Stack())
						strMessage := fmt.Sprintf("%v", rec)
						GlobalErrorAction(w, strMessage, http.StatusInternalServerError)
					}
				}()

				// Check API Key, websocket clients may pass it in the query
				apiKey := r.Header.Get("x-api-key")
				if apiKey == "" {
					apiKey = r.URL.Query().Get("api_key")
				}
				if apiKey != config.ApiParam.ApiKey {
					ErrorStatusAction(w, r, http.StatusForbidden)
					return
				}

				logrus.Debugf("PATH: %s %s", r.Host, r.URL.Path)

				handler.ServeHTTP(w, r)
			})
		})

	// Create server check endpoint
	api.apiRouter.HandleFunc("/is_alive",
		func(w http.ResponseWriter, r *http.Request) {
			ErrorStatusAction(w, r, http.StatusOK)
		}).Methods("GET")
	api.apiRouter.HandleFunc("/stream",
		func(w http.ResponseWriter, r *http.Request) {
			data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxStreamBody))
			if err != nil {
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}
			var reply bytes.Buffer
			err = api.stream(r.Context(), "http "+r.RemoteAddr, data, &reply)
			if err != nil {
				GlobalErrorAction(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			w.Write(reply.Bytes())
		}).Methods("POST")
	api.apiRouter.HandleFunc("/state",
		func(w http.ResponseWriter, r *http.Request) {
			var state protocol.State
			if err := api.send(r.Context(), event.ApiEventStateData{State: &state}); err != nil {
				GlobalErrorAction(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(apimodel.NewStateMessage(state))
		}).Methods("GET")
	api.apiRouter.HandleFunc("/frame/{display_id}",
		func(w http.ResponseWriter, r *http.Request) {
			vars := mux.Vars(r)
			displayIdStr, ok := vars["display_id"]
			if !ok {
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}
			displayId, err := strconv.ParseInt(displayIdStr, 10, 0)
			if err != nil {
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}
			var frame string
			err = api.send(r.Context(), event.ApiEventFrameData{DisplayId: protocol.DisplayId(displayId), Frame: &frame})
			if errors.Is(err, ErrNotSimulated) {
				GlobalErrorAction(w, err.Error(), http.StatusNotFound)
				return
			}
			if err != nil {
				GlobalErrorAction(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			io.WriteString(w, frame)
		}).Methods("GET")
	api.apiRouter.HandleFunc("/ws", api.handleWebsocket).Methods("GET")

	// Tell the browser that it's OK for JS to communicate with the server
	headersOk := handlers.AllowedHeaders([]string{"Authorization", "X-Api-Key", "Content-Type"})
	originsOk := handlers.AllowedOrigins([]string{"*"})
	methodsOk := handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"})

	api.server = &http.Server{
		Addr:         ":" + strconv.FormatInt(config.ApiParam.SslPort, 10),
		Handler:      handlers.CORS(originsOk, headersOk, methodsOk)(api.router),
		ReadTimeout:  time.Second * 240,
		WriteTimeout: time.Second * 240,
		IdleTimeout:  time.Second * 240,
	}

	return &api
}

func (d *Api) Start() {
	logrus.Infof("Start api device")

	hostnames := []string{"localhost", "127.0.0.1"}
	if hostname, err := os.Hostname(); err == nil {
		hostnames = append(hostnames, hostname)
	}
	generated, err := tool.EnsureTlsCertificate(
		"jypelle",
		"LED Matrix Server",
		d.selfSignedKeyFilename(),
		d.selfSignedCertFilename(),
		hostnames)
	if err != nil {
		logrus.Fatalf("Unable to generate cert and key files : %v\n", err)
	}
	if generated {
		logrus.Info("Self-signed cert and key files generated")
	}

	// Launch https server
	go func() {
		err := d.server.ListenAndServeTLS(d.selfSignedCertFilename(), d.selfSignedKeyFilename())
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Error(err)
		}
	}()
}

func (d *Api) StopSendingEvent() {
	logrus.Infof("Stop api device")
	close(d.askDone)
	d.server.Shutdown(context.Background())
}

func (d *Api) EventChannel() chan event.ApiEvent {
	return d.eventChannel
}

// send hands data to the event loop and waits for its result. Once accepted,
// an event is always answered.
func (d *Api) send(ctx context.Context, data interface{}) error {
	result := make(chan error)
	select {
	case d.eventChannel <- event.ApiEvent{Result: result, Data: data}:
	case <-d.askDone:
		return ErrApiStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-result
}

// stream hands a byte batch to the event loop and waits until it has been
// interpreted.
func (d *Api) stream(ctx context.Context, source string, data []byte, reply io.Writer) error {
	return d.send(ctx, event.ApiEventStreamData{Source: source, Data: data, Reply: reply})
}

// handleWebsocket interprets every message as a byte batch and sends the
// replies back as a text message.
func (d *Api) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	id := uuid.New().String()
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		logrus.Warnf("Websocket upgrade failed from %s: %v", r.RemoteAddr, err)
		return
	}
	defer c.CloseNow()

	logrus.Infof("Websocket %s connected from %s", id, r.RemoteAddr)

	// Shutdown does not track hijacked connections
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		select {
		case <-d.askDone:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		_, msg, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				logrus.Infof("Websocket %s closed", id)
			} else {
				logrus.Debugf("Websocket %s read error: %v", id, err)
			}
			return
		}

		var reply bytes.Buffer
		if err := d.stream(ctx, "ws "+id, msg, &reply); err != nil {
			c.Close(websocket.StatusGoingAway, err.Error())
			return
		}
		if reply.Len() == 0 {
			continue
		}

		writeCtx, cancel := context.WithTimeout(ctx, websocketWriteTimeout)
		err = c.Write(writeCtx, websocket.MessageText, reply.Bytes())
		cancel()
		if err != nil {
			// Replies are best effort
			logrus.Debugf("Websocket %s reply dropped: %v", id, err)
			return
		}
	}
}

func (d *Api) selfSignedKeyFilename() string {
	return filepath.Join(d.config.ConfigDir, "key.pem")
}

func (d *Api) selfSignedCertFilename() string {
	return filepath.Join(d.config.ConfigDir, "cert.pem")
}

func ErrorNotFoundAction(w http.ResponseWriter, r *http.Request) {
	ErrorStatusAction(w, r, http.StatusNotFound)
}

func ErrorMethodNotAllowedAction(w http.ResponseWriter, r *http.Request) {
	ErrorStatusAction(w, r, http.StatusMethodNotAllowed)
}

func ErrorStatusAction(w http.ResponseWriter, r *http.Request, status int) {
	ErrorMessageAction(w, "", status)
}

func GlobalErrorAction(w http.ResponseWriter, message string, status int) {
	ErrorMessageAction(w, message, status)
}

func ErrorMessageAction(w http.ResponseWriter, title string, status int) {
	errorMessage := &apimodel.ErrorMessage{
		ErrStatusCode: status,
		ErrMessage:    title,
	}
	errorMessage.SendError(w)
}
