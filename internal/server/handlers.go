package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/own-c/rt/internal/metadata"
	"github.com/own-c/rt/internal/session"
	"github.com/own-c/rt/internal/users"
)

// Status summarizes whether the backend is able to serve chat and stream data
type Status struct {
	IsReady bool   `json:"isReady"`
	Message string `json:"message"`
}

func (s *Server) handleWatch(res http.ResponseWriter, req *http.Request) {
	channel := mux.Vars(req)["channel"]
	if channel == "" {
		http.Error(res, "channel is required", http.StatusBadRequest)
		return
	}

	snapshot, err := s.coordinator.Watch(req.Context(), channel)
	if err != nil {
		if errors.Is(err, session.ErrNotConnected) {
			http.Error(res, err.Error(), http.StatusServiceUnavailable)
			return
		}
		http.Error(res, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJson(res, snapshot)
}

func (s *Server) handleGetUsers(res http.ResponseWriter, req *http.Request) {
	writeJson(res, s.users.All())
}

func (s *Server) handleAddUser(res http.ResponseWriter, req *http.Request) {
	username := mux.Vars(req)["username"]
	if username == "" {
		http.Error(res, "username is required", http.StatusBadRequest)
		return
	}

	stream, err := s.twitch.GetStream(req.Context(), username)
	if err != nil {
		if errors.Is(err, metadata.ErrNotFound) {
			http.Error(res, fmt.Sprintf("no such channel %q", username), http.StatusNotFound)
			return
		}
		http.Error(res, err.Error(), http.StatusBadGateway)
		return
	}

	record := users.Record{
		Username: stream.Channel,
		Avatar:   stream.AvatarUrl,
		Live:     stream.Live,
	}
	if err := s.users.Set(record); err != nil {
		http.Error(res, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJson(res, record)
}

func (s *Server) handleRemoveUser(res http.ResponseWriter, req *http.Request) {
	username := mux.Vars(req)["username"]
	if username == "" {
		http.Error(res, "username is required", http.StatusBadRequest)
		return
	}
	if err := s.users.Remove(username); err != nil {
		http.Error(res, err.Error(), http.StatusInternalServerError)
		return
	}
	res.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetLive(res http.ResponseWriter, req *http.Request) {
	usernames := make([]string, 0, 16)
	for _, username := range strings.Split(req.URL.Query().Get("usernames"), ",") {
		if username != "" {
			usernames = append(usernames, username)
		}
	}
	if len(usernames) == 0 {
		writeJson(res, []string{})
		return
	}

	live, err := s.twitch.GetLive(req.Context(), usernames)
	if err != nil {
		http.Error(res, err.Error(), http.StatusBadGateway)
		return
	}
	if err := s.users.SetLive(live); err != nil {
		fmt.Printf("Failed to save liveness refresh: %v\n", err)
	}
	if live == nil {
		live = []string{}
	}
	writeJson(res, live)
}

func (s *Server) handleStatus(res http.ResponseWriter, req *http.Request) {
	writeJson(res, s.resolveStatus())
}

func (s *Server) resolveStatus() Status {
	if err := s.getChatStatus(); err != nil {
		return Status{
			IsReady: false,
			Message: fmt.Sprintf("Chat connection is degraded. (Error: %s)", err),
		}
	}
	if snapshot, ok := s.coordinator.Snapshot(); ok {
		return Status{
			IsReady: true,
			Message: fmt.Sprintf("Connected to chat and watching %q.", snapshot.Channel),
		}
	}
	return Status{
		IsReady: true,
		Message: "Connected to chat; no channel is being watched yet.",
	}
}

func writeJson(res http.ResponseWriter, payload any) {
	res.Header().Set("content-type", "application/json")
	if err := json.NewEncoder(res).Encode(payload); err != nil {
		http.Error(res, err.Error(), http.StatusInternalServerError)
	}
}
