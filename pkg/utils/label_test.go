package utils

import "testing"

func TestMergeLabel(t *testing.T) {
	tests := []struct {
		name     string
		existing Label
		incoming Label
		want     Label
	}{
		{
			name:     "empty existing",
			existing: Label{},
			incoming: NewLabel("xgboost", "rank"),
			want:     NewLabel("xgboost", "rank"),
		},
		{
			name:     "empty incoming",
			existing: NewLabel("xgboost", "rank"),
			incoming: Label{},
			want:     NewLabel("xgboost", "rank"),
		},
		{
			name:     "different sources",
			existing: NewLabel("feature_table", "recall"),
			incoming: NewLabel("xgboost", "rank"),
			want:     NewLabel("feature_table|xgboost", "recall,rank"),
		},
		{
			name:     "same source kept once",
			existing: NewLabel("a", "filter"),
			incoming: NewLabel("b", "filter"),
			want:     NewLabel("a|b", "filter"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeLabel(tt.existing, tt.incoming)
			if got != tt.want {
				t.Errorf("MergeLabel() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
