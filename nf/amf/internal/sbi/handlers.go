package sbi

import (
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// handleSbi is the single catch-all entry point for every namf-comm,
// nausf-auth, nsmf-pdusession, npcf-am-policy, nnrf-nfm and nnrf-disc
// request. Classification is substring based, not chi path routing, so one
// handler covers the whole surface.
func (s *Server) handleSbi(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		s.respondJSON(w, http.StatusBadRequest, s.errorResponse())
		return
	}
	if len(body) > maxBodyBytes {
		s.respondJSON(w, http.StatusBadRequest, s.errorResponse())
		return
	}

	cls := Classify(r.Method, r.URL.Path)

	if !cls.Matched {
		if cls.Compat && !s.compat {
			s.respondJSON(w, http.StatusNotFound, s.notFoundResponse(r.Method, r.URL.Path))
			return
		}
		if !cls.Compat && s.strictMode {
			s.respondJSON(w, http.StatusNotFound, s.notFoundResponse(r.Method, r.URL.Path))
			return
		}
	}

	msg := SbiMessage{
		Service: cls.Service,
		Message: cls.Message,
		Method:  r.Method,
		URI:     r.URL.Path,
		Body:    body,
	}

	outcome := s.orchestrator.HandleSbiMessage(r.Context(), msg)

	s.logger.Info("sbi message processed",
		zap.String("service", string(cls.Service)),
		zap.String("message", string(cls.Message)),
		zap.Int("status", outcome.StatusCode),
	)

	s.respondJSON(w, outcome.StatusCode, Response{
		Status:    statusLabel(outcome.StatusCode),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		AmfState:  outcome.AmfState,
		ProcessedMessage: ProcessedMessage{
			Service: serviceCode(cls.Service),
			Type:    messageCode(cls.Message),
			Method:  methodCode(r.Method),
			URI:     r.URL.Path,
		},
	})
}

func statusLabel(code int) string {
	if code >= 200 && code < 300 {
		return "success"
	}
	return "error"
}

func (s *Server) errorResponse() Response {
	return Response{
		Status:    "error",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		AmfState:  "UNKNOWN",
	}
}

func (s *Server) notFoundResponse(method, uri string) Response {
	return Response{
		Status:    "error",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		AmfState:  "UNKNOWN",
		ProcessedMessage: ProcessedMessage{
			Method: methodCode(method),
			URI:    uri,
		},
	}
}
