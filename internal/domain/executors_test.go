package domain_test

import (
	"reflect"
	"testing"

	"github.com/alex010501/TasksTracking/internal/domain"
)

func TestEncodeExecutorIDs(t *testing.T) {
	tests := []struct {
		name string
		ids  []int64
		want string
	}{
		{"plain", []int64{3, 7, 12}, "3,7,12"},
		{"duplicates keep first position", []int64{3, 7, 3, 12, 7}, "3,7,12"},
		{"non-positive dropped", []int64{0, 3, -5, 7}, "3,7"},
		{"single", []int64{9}, "9"},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := domain.EncodeExecutorIDs(tt.ids); got != tt.want {
				t.Errorf("EncodeExecutorIDs(%v) = %q, want %q", tt.ids, got, tt.want)
			}
		})
	}
}

func TestNormalizeExecutorIDs(t *testing.T) {
	tests := []struct {
		name string
		ids  []int64
		want []int64
	}{
		{"already canonical", []int64{3, 7, 12}, []int64{3, 7, 12}},
		{"duplicates keep first position", []int64{3, 3, 7, 3}, []int64{3, 7}},
		{"non-positive dropped", []int64{3, 3, -1, 7}, []int64{3, 7}},
		{"nothing valid", []int64{0, -2}, []int64{}},
		{"empty", nil, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := domain.NormalizeExecutorIDs(tt.ids); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeExecutorIDs(%v) = %v, want %v", tt.ids, got, tt.want)
			}
		})
	}
}

func TestDecodeExecutorIDs(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []int64
	}{
		{"plain", "3,7,12", []int64{3, 7, 12}},
		{"whitespace tolerated", " 3 , 7 ,12 ", []int64{3, 7, 12}},
		{"blank and junk tokens dropped", "3,,x,3,5", []int64{3, 5}},
		{"all junk", "a,b,,", nil},
		{"empty", "", nil},
		{"single", "42", []int64{42}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := domain.DecodeExecutorIDs(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DecodeExecutorIDs(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestExecutorIDs_RoundTrip(t *testing.T) {
	in := []int64{5, 2, 5, 9, 2, 11}
	want := []int64{5, 2, 9, 11} // dedup, first-seen order
	got := domain.DecodeExecutorIDs(domain.EncodeExecutorIDs(in))
	if !reflect.DeepEqual(got, want) {
		t.Errorf("decode(encode(%v)) = %v, want %v", in, got, want)
	}
}

func TestTask_HasExecutor(t *testing.T) {
	task := &domain.Task{ExecutorIDs: []int64{3, 7}}
	if !task.HasExecutor(7) {
		t.Error("HasExecutor(7) = false, want true")
	}
	if task.HasExecutor(8) {
		t.Error("HasExecutor(8) = true, want false")
	}
}
