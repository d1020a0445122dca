// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package announce

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/pubwatch/pkg/types"
)

// --- fakes ---

type fakeNotifier struct {
	sent    []string
	failFor map[string]error // message substring -> error
}

func (f *fakeNotifier) Send(_ context.Context, text string) error {
	for sub, err := range f.failFor {
		if strings.Contains(text, sub) {
			return err
		}
	}
	f.sent = append(f.sent, text)
	return nil
}

type fakeLedger struct {
	marked []string
}

func (f *fakeLedger) Mark(_ context.Context, id, _ string) error {
	f.marked = append(f.marked, id)
	return nil
}

func pub(pmid string, credited ...types.RosterEntry) types.Publication {
	return types.Publication{
		Summary: types.Summary{
			PMID:    pmid,
			Title:   "On Radium",
			Authors: []string{"Curie M", "Becquerel H"},
			Journal: "Nature",
			PubDate: "Mar 2026",
		},
		Credited: credited,
	}
}

var (
	curie = types.RosterEntry{CanonicalName: "Curie Marie", MentionID: "U01CURIE"}
	hahn  = types.RosterEntry{CanonicalName: "Hahn Otto"}
)

// --- Build ---

func TestBuild(t *testing.T) {
	msg := Build(pub("222", curie, hahn))

	for _, want := range []string{
		"*New Publication*",
		"*Title:* On Radium",
		"*Authors:* Curie M, Becquerel H",
		"*Journal:* Nature (Mar 2026)",
		"*Group members:* <@U01CURIE> Hahn Otto",
		"https://pubmed.ncbi.nlm.nih.gov/222/",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestBuildDeterministic(t *testing.T) {
	p := pub("222", curie, hahn)
	if Build(p) != Build(p) {
		t.Error("Build is not deterministic")
	}
}

func TestBuildTruncatesAuthors(t *testing.T) {
	p := pub("222", curie)
	p.Authors = nil
	for i := 0; i < 14; i++ {
		p.Authors = append(p.Authors, fmt.Sprintf("Author %d", i))
	}

	msg := Build(p)
	if !strings.Contains(msg, "et al. (14 authors)") {
		t.Errorf("message missing truncation note:\n%s", msg)
	}
	if strings.Contains(msg, "Author 10") {
		t.Errorf("message should list only the first 10 authors:\n%s", msg)
	}
}

func TestBuildNoJournal(t *testing.T) {
	p := pub("222", curie)
	p.Journal = ""
	p.PubDate = ""

	if msg := Build(p); strings.Contains(msg, "*Journal:*") {
		t.Errorf("message should omit empty journal:\n%s", msg)
	}
}

// --- Dispatch ---

func TestDispatchMarksAfterSend(t *testing.T) {
	n := &fakeNotifier{}
	led := &fakeLedger{}

	res, err := Dispatch(context.Background(), []types.Publication{pub("111", curie), pub("222", curie)}, n, led, nil, Options{}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Dispatch() = %v", err)
	}
	if res.Announced != 2 || res.Failed != 0 {
		t.Errorf("Result = %+v", res)
	}
	if len(n.sent) != 2 {
		t.Errorf("sent = %d messages, want 2", len(n.sent))
	}
	if len(led.marked) != 2 || led.marked[0] != "111" || led.marked[1] != "222" {
		t.Errorf("marked = %v, want [111 222]", led.marked)
	}
}

func TestDispatchDryRunTouchesNothing(t *testing.T) {
	n := &fakeNotifier{}
	led := &fakeLedger{}
	var log bytes.Buffer

	res, err := Dispatch(context.Background(), []types.Publication{pub("111", curie)}, n, led, nil, Options{DryRun: true}, &log)
	if err != nil {
		t.Fatalf("Dispatch() = %v", err)
	}
	if res.Announced != 1 {
		t.Errorf("Announced = %d, want 1", res.Announced)
	}
	if len(n.sent) != 0 {
		t.Errorf("dry run sent %d messages", len(n.sent))
	}
	if len(led.marked) != 0 {
		t.Errorf("dry run marked %v", led.marked)
	}
	if !strings.Contains(log.String(), "[dry run] would announce PMID 111") {
		t.Errorf("log missing dry-run preview: %q", log.String())
	}
}

func TestDispatchSkipsFailedSend(t *testing.T) {
	// The failing publication is neither marked nor counted announced; the
	// rest of the batch still goes out.
	n := &fakeNotifier{failFor: map[string]error{"/111/": errors.New("send failed")}}
	led := &fakeLedger{}
	var log bytes.Buffer

	res, err := Dispatch(context.Background(), []types.Publication{pub("111", curie), pub("222", curie)}, n, led, nil, Options{MaxFailures: 3}, &log)
	if err != nil {
		t.Fatalf("Dispatch() = %v", err)
	}
	if res.Announced != 1 || res.Failed != 1 {
		t.Errorf("Result = %+v", res)
	}
	if len(led.marked) != 1 || led.marked[0] != "222" {
		t.Errorf("marked = %v, want [222]", led.marked)
	}
	if !strings.Contains(log.String(), "warning: dispatch failed for PMID 111") {
		t.Errorf("log = %q", log.String())
	}
}

func TestDispatchFailureThreshold(t *testing.T) {
	n := &fakeNotifier{failFor: map[string]error{"pubmed.ncbi": errors.New("send failed")}}
	led := &fakeLedger{}

	pubs := []types.Publication{pub("111", curie), pub("222", curie), pub("333", curie)}
	res, err := Dispatch(context.Background(), pubs, n, led, nil, Options{MaxFailures: 2}, &bytes.Buffer{})
	if !errors.Is(err, ErrTooManyFailures) {
		t.Fatalf("err = %v, want ErrTooManyFailures", err)
	}
	if res.Failed != 2 {
		t.Errorf("Failed = %d, want 2 (aborted at threshold)", res.Failed)
	}
	if len(led.marked) != 0 {
		t.Errorf("marked = %v, want none", led.marked)
	}
}

func TestDispatchWritesArchive(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "announced")
	n := &fakeNotifier{}
	led := &fakeLedger{}

	_, err := Dispatch(context.Background(), []types.Publication{pub("111", curie)}, n, led, nil, Options{ArchiveDir: dir}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Dispatch() = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "111.yaml"))
	if err != nil {
		t.Fatalf("reading archive: %v", err)
	}
	for _, want := range []string{"pmid: \"111\"", "title: On Radium", "Curie Marie"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("archive missing %q:\n%s", want, data)
		}
	}
}
