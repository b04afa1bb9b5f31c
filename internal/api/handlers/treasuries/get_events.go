package treasuries

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kashguard/go-mpc-treasury/internal/api"
	"github.com/kashguard/go-mpc-treasury/internal/api/httperrors"
	"github.com/kashguard/go-mpc-treasury/internal/types"
	"github.com/kashguard/go-mpc-treasury/internal/util"
	"github.com/labstack/echo/v4"
)

// eventsPingInterval keeps idle SSE connections alive through proxies.
const eventsPingInterval = 15 * time.Second

func GetEventsRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Treasuries.GET("/:treasuryID/events", getEventsHandler(s))
}

// getEventsHandler streams treasury lifecycle events as server-sent events
// until the client disconnects.
func getEventsHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		events, cancel, err := s.Treasury.SubscribeEvents(ctx, c.Param("treasuryID"))
		if err != nil {
			return mapServiceError(err)
		}
		defer cancel()

		res := c.Response()
		flusher, ok := res.Writer.(http.Flusher)
		if !ok {
			return httperrors.NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, "Streaming unsupported")
		}

		res.Header().Set(echo.HeaderContentType, "text/event-stream")
		res.Header().Set("Cache-Control", "no-cache")
		res.Header().Set("Connection", "keep-alive")
		res.WriteHeader(http.StatusOK)
		flusher.Flush()

		ping := time.NewTicker(eventsPingInterval)
		defer ping.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil

			case event, open := <-events:
				if !open {
					return nil
				}
				data, err := json.Marshal(event)
				if err != nil {
					log.Error().Err(err).Msg("Failed to encode treasury event")
					continue
				}
				if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", event.Type, data); err != nil {
					return nil
				}
				flusher.Flush()

			case <-ping.C:
				if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
					return nil
				}
				flusher.Flush()
			}
		}
	}
}
