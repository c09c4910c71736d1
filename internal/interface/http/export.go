package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/codetrack-hub/codetrack-backend/internal/application/command"
	"github.com/codetrack-hub/codetrack-backend/internal/application/query"
)

// maxImportBytes bounds an uploaded roster spreadsheet.
const maxImportBytes = 8 << 20

// exportColumns are the spreadsheet columns, in order. History maps are left
// out; they do not fit a flat sheet.
var exportColumns = []string{
	"roll_number", "name", "github_username", "leetcode_username",
	"git_followers", "git_following", "git_public_repo", "git_original_repo",
	"git_authored_repo", "last_commit_day", "git_badges",
	"lc_total_solved", "lc_easy", "lc_medium", "lc_hard", "lc_ranking",
	"lc_lastsubmission", "lc_lastacceptedsubmission", "lc_cur_streak",
	"lc_max_streak", "lc_badges", "lc_language",
}

// handleExport handles GET /export?table_name=g: streams the combined view
// as an .xlsx workbook.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	name := groupNameOf(r.URL.Query().Get("table_name"))
	if name == "" {
		writeJSONError(w, http.StatusBadRequest, "table_name query parameter is required")
		return
	}

	rows, err := s.deps.GroupData.Handle(r.Context(), query.GetGroupDataQuery{GroupName: name})
	if err != nil {
		s.writeDomainError(w, r, err, http.StatusNotFound)
		return
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	for i, col := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, col)
	}
	for i, row := range rows {
		values := exportRow(row)
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	w.Header().Set("Content-Type",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s.xlsx"`, name))
	if err := f.Write(w); err != nil {
		s.logger.Error("export write failed", "group", name, "error", err)
	}
}

// exportRow flattens one view row into the export column order.
func exportRow(row query.GroupDataRow) []any {
	return []any{
		row.RollNumber, row.Name, deref(row.GitHubUsername), deref(row.LeetCodeUsername),
		derefInt(row.GitFollowers), derefInt(row.GitFollowing), derefInt(row.GitPublicRepos),
		derefInt(row.GitOriginalRepos), derefInt(row.GitAuthoredRepos),
		deref(row.LastCommitDay), deref(row.GitBadges),
		derefInt(row.LCTotalSolved), derefInt(row.LCEasy), derefInt(row.LCMedium),
		derefInt(row.LCHard), derefInt64(row.LCRanking),
		deref(row.LCLastSubmission), deref(row.LCLastAcceptedSubmission),
		derefInt(row.LCCurrentStreak), derefInt(row.LCMaxStreak),
		deref(row.LCBadges), deref(row.LCLanguages),
	}
}

func deref(s *string) any {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(n *int) any {
	if n == nil {
		return ""
	}
	return *n
}

func derefInt64(n *int64) any {
	if n == nil {
		return ""
	}
	return *n
}

// importReport is the /import response.
type importReport struct {
	TableName string   `json:"table_name"`
	Imported  int      `json:"imported"`
	Errors    []string `json:"errors"`
}

// handleImport handles POST /import: a multipart upload with a "table_name"
// form value and a "file" .xlsx roster. Expected columns, in order: roll
// number, name, GitHub username, LeetCode username. The first row is treated
// as a header. Bad rows are reported and skipped, matching the sync engine's
// partial-success stance.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	name := groupNameOf(r.FormValue("table_name"))
	if name == "" {
		writeJSONError(w, http.StatusBadRequest, "table_name form value is required")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "file form value is required")
		return
	}
	defer func() { _ = file.Close() }()

	f, err := excelize.OpenReader(file)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "could not read spreadsheet")
		return
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		writeJSONError(w, http.StatusBadRequest, "spreadsheet has no sheets")
		return
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "could not read spreadsheet rows")
		return
	}

	report := importReport{TableName: name, Errors: make([]string, 0)}
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		cmd, err := importRowCommand(name, row)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		if _, err := s.deps.UpsertStudent.Handle(r.Context(), cmd); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		report.Imported++
	}
	writeJSON(w, http.StatusOK, report)
}

// importRowCommand parses one spreadsheet row into an upsert command.
func importRowCommand(groupName string, row []string) (command.UpsertStudentCommand, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	roll, err := strconv.ParseInt(cell(0), 10, 64)
	if err != nil {
		return command.UpsertStudentCommand{}, fmt.Errorf("bad roll number %q", cell(0))
	}

	cmd := command.UpsertStudentCommand{
		GroupName:  groupName,
		RollNumber: roll,
		Name:       cell(1),
	}
	if gh := cell(2); gh != "" {
		cmd.GitHubUsername = &gh
	}
	if lc := cell(3); lc != "" {
		cmd.LeetCodeUsername = &lc
	}
	return cmd, nil
}
