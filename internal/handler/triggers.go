package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/Velocity-BPA/convex-monitor/internal/store"
	"github.com/Velocity-BPA/convex-monitor/internal/trigger"
)

func ListTriggers(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		instances, err := s.ListInstances(r.Context())
		if err != nil {
			http.Error(w, `{"error":"failed to list triggers"}`, http.StatusInternalServerError)
			return
		}
		if instances == nil {
			instances = []store.Instance{}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(instances)
	}
}

func CreateTrigger(s *store.Store) http.HandlerFunc {
	type request struct {
		Name       string         `json:"name"`
		Config     trigger.Config `json:"config"`
		WebhookURL string         `json:"webhook_url"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}

		if req.Name == "" {
			http.Error(w, `{"error":"name required"}`, http.StatusBadRequest)
			return
		}
		if err := req.Config.Validate(); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}

		inst, err := s.CreateInstance(r.Context(), req.Name, req.Config, req.WebhookURL)
		if err != nil {
			http.Error(w, `{"error":"failed to create trigger"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(inst)
	}
}

func GetTrigger(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := triggerID(r)
		if err != nil {
			http.Error(w, `{"error":"invalid trigger id"}`, http.StatusBadRequest)
			return
		}

		inst, err := s.GetInstance(r.Context(), id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				http.Error(w, `{"error":"trigger not found"}`, http.StatusNotFound)
				return
			}
			http.Error(w, `{"error":"failed to load trigger"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(inst)
	}
}

func SetTriggerEnabled(s *store.Store) http.HandlerFunc {
	type request struct {
		Enabled bool `json:"enabled"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		id, err := triggerID(r)
		if err != nil {
			http.Error(w, `{"error":"invalid trigger id"}`, http.StatusBadRequest)
			return
		}

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}

		if err := s.SetInstanceEnabled(r.Context(), id, req.Enabled); err != nil {
			http.Error(w, `{"error":"failed to update trigger"}`, http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteTrigger(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := triggerID(r)
		if err != nil {
			http.Error(w, `{"error":"invalid trigger id"}`, http.StatusBadRequest)
			return
		}

		if err := s.DeleteInstance(r.Context(), id); err != nil {
			http.Error(w, `{"error":"failed to delete trigger"}`, http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func triggerID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
