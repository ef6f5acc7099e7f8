package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/huebridge/internal/device"
	"github.com/nerrad567/huebridge/internal/hue"
	"github.com/nerrad567/huebridge/internal/metrics"
)

// handleListLights returns every descriptor keyed by light id.
func (s *Server) handleListLights(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("LIGHTS", "path", r.URL.Path)
	writeJSON(w, http.StatusOK, s.registry.Lights())
}

// handleGetLight returns one descriptor. Unknown ids are a bad request,
// which is what Hue controllers have been seen to tolerate.
func (s *Server) handleGetLight(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("LIGHTS", "path", r.URL.Path)

	id := chi.URLParam(r, "id")
	d, err := s.registry.Describe(id)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeBadRequest(w, "unknown light "+id)
			return
		}
		writeInternalError(w, "lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, d)
}

// handleSetLightState translates a state command into at most one publish
// and always acknowledges it.
func (s *Server) handleSetLightState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	cmd, err := hue.DecodeCommand(r.Body)
	if err != nil {
		s.logger.Warn("COMMAND rejected", "path", r.URL.Path, "error", err)
		writeBadRequest(w, err.Error())
		return
	}
	s.logger.Info("COMMAND", "path", r.URL.Path, "id", id, "kind", string(hue.Classify(cmd)))

	s.dispatch(id, cmd)

	writeJSON(w, http.StatusOK, hue.Acknowledge(id))
}

// dispatch publishes the translation of cmd for light id, if any.
// Nothing here can fail the request.
func (s *Server) dispatch(id string, cmd hue.Command) {
	caps, err := s.registry.Capabilities(id)
	if err != nil {
		s.logger.Debug("command for unknown light ignored", "id", id)
		s.metrics.ObserveCommand(string(hue.Classify(cmd)), metrics.ResultSkipped)
		return
	}

	action, ok := hue.Translate(cmd, caps)
	if !ok {
		s.logger.Debug("no capability for command", "id", id, "kind", string(action.Kind))
		s.metrics.ObserveCommand(string(action.Kind), metrics.ResultSkipped)
		s.record(id, action, false)
		return
	}

	if s.bus == nil {
		s.logger.Warn("no message bus, command dropped", "id", id, "topic", action.Topic)
		s.metrics.ObserveCommand(string(action.Kind), metrics.ResultFailed)
		s.record(id, action, false)
		return
	}

	if err := s.bus.PublishAsync(action.Topic, action.Payload); err != nil {
		s.logger.Warn("publish rejected", "id", id, "topic", action.Topic, "error", err)
		s.metrics.ObserveCommand(string(action.Kind), metrics.ResultFailed)
		s.record(id, action, false)
		return
	}

	s.logger.Debug("meta", "topic", action.Topic, "payload", string(action.Payload))
	s.metrics.ObserveCommand(string(action.Kind), metrics.ResultPublished)
	s.record(id, action, true)
}

func (s *Server) record(id string, action hue.Action, published bool) {
	if s.recorder == nil {
		return
	}
	s.recorder.WriteCommand(id, string(action.Kind), action.Topic, action.Payload, published)
}

// handleMisc answers every unknown method or path.
func (s *Server) handleMisc(w http.ResponseWriter, r *http.Request) {
	s.logger.Error("MISC", "method", r.Method, "path", r.URL.Path)
	writeBadRequest(w, "unsupported request")
}
