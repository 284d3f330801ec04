package media

import "testing"

func TestParseState(t *testing.T) {
	cases := []struct {
		input string
		want  State
		ok    bool
	}{
		{"imported", StateImported, true},
		{" Transcribed ", StateTranscribed, true},
		{"PROCESSING_FAILED", StateProcessingFailed, true},
		{"", "", false},
		{"ripping", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseState(tc.input)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ParseState(%q) = (%q, %v), want (%q, %v)", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestStateTransitions(t *testing.T) {
	legal := []struct{ from, to State }{
		{StateImported, StateTranscribing},
		{StateTranscribing, StateTranscribed},
		{StateTranscribing, StateTranscriptionFailed},
		{StateTranscriptionFailed, StateTranscribing},
		{StateTranscribed, StateProcessing},
		{StateTranscribed, StateExported},
		{StateProcessing, StateProcessed},
		{StateProcessing, StateProcessingFailed},
		{StateProcessed, StateExported},
	}
	for _, tc := range legal {
		if !tc.from.CanTransition(tc.to) {
			t.Errorf("expected %s -> %s to be legal", tc.from, tc.to)
		}
	}

	illegal := []struct{ from, to State }{
		{StateImported, StateTranscribed},
		{StateImported, StateExported},
		{StateTranscribed, StateProcessed},
		{StateExported, StateImported},
		{StateProcessingFailed, StateProcessed},
	}
	for _, tc := range illegal {
		if tc.from.CanTransition(tc.to) {
			t.Errorf("expected %s -> %s to be rejected", tc.from, tc.to)
		}
	}
}

func TestStateRankMonotonicOnSuccessPath(t *testing.T) {
	path := []State{StateImported, StateTranscribing, StateTranscribed, StateProcessing, StateProcessed, StateExported}
	for i := 1; i < len(path); i++ {
		if path[i].Rank() <= path[i-1].Rank() {
			t.Errorf("rank of %s (%d) should exceed %s (%d)", path[i], path[i].Rank(), path[i-1], path[i-1].Rank())
		}
	}
}

func TestParseTypeFallsBackToOther(t *testing.T) {
	if got := ParseType("audio"); got != TypeAudio {
		t.Fatalf("ParseType(audio) = %s", got)
	}
	if got := ParseType("hologram"); got != TypeOther {
		t.Fatalf("ParseType(hologram) = %s, want other", got)
	}
	if TypeImage.Transcribable() {
		t.Fatal("image objects must not be transcribable")
	}
	if !TypeAudio.Transcribable() {
		t.Fatal("audio objects must be transcribable")
	}
}

func TestBestEntryPreference(t *testing.T) {
	entries := []Entry{
		{ID: "1", Variant: VariantRaw},
		{ID: "2", Variant: VariantFormatted},
	}
	if best := BestEntry(entries); best == nil || best.Variant != VariantFormatted {
		t.Fatalf("expected formatted entry, got %+v", best)
	}

	entries = append(entries, Entry{ID: "3", Variant: VariantProcessed})
	if best := BestEntry(entries); best == nil || best.Variant != VariantProcessed {
		t.Fatalf("expected processed entry, got %+v", best)
	}

	if best := BestEntry(nil); best != nil {
		t.Fatalf("expected nil for no entries, got %+v", best)
	}
}

func TestVariantStageReached(t *testing.T) {
	if VariantRaw.StageReached() != StateTranscribed {
		t.Fatal("raw entries imply at least transcribed")
	}
	if VariantProcessed.StageReached() != StateProcessed {
		t.Fatal("processed entries imply at least processed")
	}
}

func TestHashTextChangesWithContent(t *testing.T) {
	a := HashText("hello")
	b := HashText("hello ")
	if a == b {
		t.Fatal("expected different hashes for different text")
	}
	if a != HashText("hello") {
		t.Fatal("hash must be deterministic")
	}
}
