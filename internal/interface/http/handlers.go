package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/codetrack-hub/codetrack-backend/internal/application/command"
	"github.com/codetrack-hub/codetrack-backend/internal/application/query"
	"github.com/codetrack-hub/codetrack-backend/internal/domain/group"
)

// maxBodyBytes bounds request bodies. The largest legitimate payload is an
// Excel roster import, which has its own limit.
const maxBodyBytes = 1 << 20

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST SHAPES
// ══════════════════════════════════════════════════════════════════════════════

type tableRequest struct {
	TableName string `json:"table_name"`
}

type addStudentRequest struct {
	TableName        string  `json:"table_name"`
	RollNumber       int64   `json:"rollnumber"`
	Name             string  `json:"name"`
	GitHubUsername   *string `json:"github_username"`
	LeetCodeUsername *string `json:"leetcode_username"`
}

type notifRequest struct {
	TableName  string `json:"table_name"`
	RollNumber int64  `json:"rollnumber"`
	Reason     string `json:"reason"`
}

// decodeBody decodes a JSON request body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// groupNameOf normalizes a table name from a request. Callers may send either
// the group name or its historical "<name>_Data" alias.
func groupNameOf(tableName string) string {
	name := strings.TrimSpace(tableName)
	return strings.TrimSuffix(name, group.DataSuffix)
}

// ══════════════════════════════════════════════════════════════════════════════
// GROUP & ROSTER HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleAddTable handles POST /addtable: registers a group.
func (s *Server) handleAddTable(w http.ResponseWriter, r *http.Request) {
	var req tableRequest
	if !decodeBody(w, r, &req) {
		return
	}
	name := groupNameOf(req.TableName)

	res, err := s.deps.EnsureGroup.Handle(r.Context(), command.EnsureGroupCommand{Name: name})
	if err != nil {
		s.writeDomainError(w, r, err, http.StatusBadRequest)
		return
	}
	if !res.Created {
		writeJSONError(w, http.StatusConflict, fmt.Sprintf("table %s already exists", name))
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"message": fmt.Sprintf("table %s created successfully", name),
	})
}

// handleAddDataTable handles POST /addDataTable: enables stats collection.
func (s *Server) handleAddDataTable(w http.ResponseWriter, r *http.Request) {
	var req tableRequest
	if !decodeBody(w, r, &req) {
		return
	}
	name := groupNameOf(req.TableName)

	res, err := s.deps.EnsureStats.Handle(r.Context(), command.EnsureStatsCommand{Name: name})
	if err != nil {
		s.writeDomainError(w, r, err, http.StatusBadRequest)
		return
	}
	if !res.Created {
		writeJSONError(w, http.StatusConflict,
			fmt.Sprintf("table %s%s already exists", name, group.DataSuffix))
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"message": fmt.Sprintf("table %s%s created successfully", name, group.DataSuffix),
	})
}

// handleAddStudent handles POST /add: inserts or replaces one roster entry.
// The group must already be registered; a missing group is the caller's
// mistake, reported as 400.
func (s *Server) handleAddStudent(w http.ResponseWriter, r *http.Request) {
	var req addStudentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	rec, err := s.deps.UpsertStudent.Handle(r.Context(), command.UpsertStudentCommand{
		GroupName:        groupNameOf(req.TableName),
		RollNumber:       req.RollNumber,
		Name:             req.Name,
		GitHubUsername:   req.GitHubUsername,
		LeetCodeUsername: req.LeetCodeUsername,
	})
	if err != nil {
		s.writeDomainError(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":    "student added successfully",
		"rollnumber": rec.RollNumber,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// SYNC & DATA HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleUpdate handles POST /update: refreshes every snapshot in the group.
// Per-student failures are embedded in the response; the call only fails
// when the group is unknown, stats are off, or a sync is already running.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req tableRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := s.deps.SyncGroup.Handle(r.Context(), command.SyncGroupCommand{
		GroupName: groupNameOf(req.TableName),
	})
	if err != nil {
		s.writeDomainError(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleData handles POST /data: the combined roster+stats view.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	var req tableRequest
	if !decodeBody(w, r, &req) {
		return
	}

	rows, err := s.deps.GroupData.Handle(r.Context(), query.GetGroupDataQuery{
		GroupName: groupNameOf(req.TableName),
	})
	if err != nil {
		s.writeDomainError(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleAddNotif handles POST /addNotif: flags a student. The roster entry
// must exist so the flag carries the student's name.
func (s *Server) handleAddNotif(w http.ResponseWriter, r *http.Request) {
	var req notifRequest
	if !decodeBody(w, r, &req) {
		return
	}

	n, err := s.deps.AddNotification.Handle(r.Context(), command.AddNotificationCommand{
		GroupName:  groupNameOf(req.TableName),
		RollNumber: req.RollNumber,
		Reason:     req.Reason,
	})
	if err != nil {
		s.writeDomainError(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

// handleRemoveNotif handles POST /removeNotif. Removing an absent flag is
// not an error; the response reports zero removed.
func (s *Server) handleRemoveNotif(w http.ResponseWriter, r *http.Request) {
	var req notifRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := s.deps.RemoveNotification.Handle(r.Context(), command.RemoveNotificationCommand{
		GroupName:  groupNameOf(req.TableName),
		RollNumber: req.RollNumber,
	})
	if err != nil {
		s.writeDomainError(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"removed": res.Removed})
}

// handleShowNotif handles GET /showNotif: every flag across all groups.
func (s *Server) handleShowNotif(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.ListNotifications.Handle(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleAvailable handles GET /available: the registered group names.
func (s *Server) handleAvailable(w http.ResponseWriter, r *http.Request) {
	names, err := s.deps.ListGroups.Handle(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"tables": names})
}

// handleLastUpdate handles GET /lastUpdate: per-group last-sync times,
// most recent first, rendered in IST.
func (s *Server) handleLastUpdate(w http.ResponseWriter, r *http.Request) {
	entries, err := s.deps.LastUpdate.Handle(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
		return
	}
	status := s.deps.HealthChecker.Check(r.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}
