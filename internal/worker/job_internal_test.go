package worker

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestJobValuesRoundTrip(t *testing.T) {
	job := EmbedJob{
		ArtefactID:     "a-1",
		CoverKey:       "covers/a-1",
		Ciphertext:     []byte{0x00, 0xff, 0x10, 0x80},
		KeyFingerprint: "beef",
	}

	// Redis hands field values back as strings.
	values := make(map[string]any)
	for k, v := range job.values() {
		values[k] = v.(string)
	}

	got, err := jobFromValues(values)
	if err != nil {
		t.Fatalf("jobFromValues() error = %v", err)
	}
	if diff := cmp.Diff(job, got); diff != "" {
		t.Errorf("job mismatch (-want +got):\n%s", diff)
	}
}

func TestJobFromValuesMalformed(t *testing.T) {
	valid := func() map[string]any {
		return map[string]any{
			"artefactID":     "a",
			"coverKey":       "covers/a",
			"ciphertext":     "AAEC",
			"keyFingerprint": "f",
		}
	}
	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{name: "missing artefact", mutate: func(m map[string]any) { delete(m, "artefactID") }},
		{name: "missing cover", mutate: func(m map[string]any) { delete(m, "coverKey") }},
		{name: "missing fingerprint", mutate: func(m map[string]any) { delete(m, "keyFingerprint") }},
		{name: "missing ciphertext", mutate: func(m map[string]any) { delete(m, "ciphertext") }},
		{name: "bad base64", mutate: func(m map[string]any) { m["ciphertext"] = "***" }},
		{name: "wrong type", mutate: func(m map[string]any) { m["coverKey"] = 12 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := valid()
			tt.mutate(values)
			if _, err := jobFromValues(values); !errors.Is(err, ErrMalformedJob) {
				t.Errorf("jobFromValues() error = %v, want ErrMalformedJob", err)
			}
		})
	}
}
