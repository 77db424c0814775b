package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arnavshah/carematch-api/pkg/models"
)

func testInput() (models.WorkerProfile, []models.Shift) {
	worker := models.WorkerProfile{
		ID:             "w1",
		Location:       models.Location{City: "Columbus"},
		Certifications: []string{"CPR Certification"},
		Availability:   &models.Availability{FullTime: true},
		Preferences: models.Preferences{
			MaxDistance:         20,
			PreferredRateRange:  models.RateRange{Min: 18, Max: 25},
			PreferredShiftTypes: []string{"Personal Care"},
		},
		Stats: &models.WorkerStats{Rating: 4.8},
	}
	shift := models.Shift{
		ID: "cpr", Title: "Day support", Date: "2024-06-04", StartTime: "08:00", EndTime: "16:00",
		City: "Columbus", HourlyRate: 22, ShiftType: "Personal Care",
		RequiredCredentials: []string{"CPR"}, Urgency: models.UrgencyHigh,
	}
	meds := shift
	meds.ID = "meds"
	meds.RequiredCredentials = []string{"Medication Administration"}
	return worker, []models.Shift{meds, shift}
}

func TestRunMatchTable(t *testing.T) {
	worker, shifts := testInput()
	var out bytes.Buffer

	err := runMatch(&out, &Config{MinScore: 60, Limit: 10, DistanceMode: "geo", FallbackMiles: 25}, worker, shifts, false)
	if err != nil {
		t.Fatalf("runMatch failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected a header and 1 row, got %q", out.String())
	}
	if !strings.HasPrefix(lines[1], "100") || !strings.Contains(lines[1], "cpr") {
		t.Errorf("Expected cpr scoring 100, got %q", lines[1])
	}
}

func TestRunMatchJSON(t *testing.T) {
	worker, shifts := testInput()
	var out bytes.Buffer

	err := runMatch(&out, &Config{MinScore: 0, Limit: 1, DistanceMode: "placeholder", Seed: 7}, worker, shifts, true)
	if err != nil {
		t.Fatalf("runMatch failed: %v", err)
	}
	var resp models.MatchResponse
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("Expected JSON output: %v", err)
	}
	if resp.Evaluated != 2 || len(resp.Matches) != 1 || resp.Matches[0].ShiftID != "cpr" {
		t.Errorf("Expected the cpr shift out of 2, got %+v", resp)
	}
}

func TestRunMatchNoResults(t *testing.T) {
	worker, shifts := testInput()
	var out bytes.Buffer

	if err := runMatch(&out, &Config{MinScore: 101, Limit: 10}, worker, shifts, false); err != nil {
		t.Fatalf("runMatch failed: %v", err)
	}
	if !strings.HasPrefix(out.String(), "No shifts scored") {
		t.Errorf("Expected an empty result message, got %q", out.String())
	}
}

func TestUnknownDistanceMode(t *testing.T) {
	worker, shifts := testInput()
	if err := runMatch(&bytes.Buffer{}, &Config{DistanceMode: "teleport"}, worker, shifts, false); err == nil {
		t.Errorf("Expected an error for an unknown distance mode")
	}
}

func TestLoadInput(t *testing.T) {
	worker, shifts := testInput()
	dir := t.TempDir()
	write := func(name string, v any) string {
		data, _ := json.Marshal(v)
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o600); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		return path
	}

	gotWorker, gotShifts, err := loadInput(write("worker.json", worker), write("shifts.json", shifts))
	if err != nil {
		t.Fatalf("loadInput failed: %v", err)
	}
	if gotWorker.ID != "w1" || len(gotShifts) != 2 {
		t.Errorf("Expected worker w1 and 2 shifts, got %s and %d", gotWorker.ID, len(gotShifts))
	}

	if _, _, err := loadInput(filepath.Join(dir, "missing.json"), ""); err == nil {
		t.Errorf("Expected an error for a missing file")
	}
}
