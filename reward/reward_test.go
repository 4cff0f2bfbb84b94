package reward

import (
	"math"
	"testing"

	"github.com/rushteam/banditkit/core"
)

func fp(v float64) *float64 { return &v }

func TestCompute(t *testing.T) {
	tests := []struct {
		name    string
		event   *Event
		want    float64
		wantErr func(error) bool
	}{
		{
			name:    "nil event",
			event:   nil,
			wantErr: core.IsInvalidReward,
		},
		{
			name:    "passive view carries no reward",
			event:   &Event{Type: EventView, BringsBackMemories: true},
			wantErr: core.IsInvalidReward,
		},
		{
			name:    "passive skip carries no reward",
			event:   &Event{Type: EventSkip},
			wantErr: core.IsInvalidReward,
		},
		{
			name:  "explicit negative maps to floor",
			event: &Event{Type: EventExplicit, BringsBackMemories: false},
			want:  Min,
		},
		{
			// 负反馈时压力/习惯信号不救场
			name: "explicit negative ignores bonus signals",
			event: &Event{
				Type:               EventExplicit,
				BringsBackMemories: false,
				StressBefore:       fp(0.9),
				StressAfter:        fp(0.1),
				HabitCompleted:     true,
			},
			want: Min,
		},
		{
			name:  "explicit positive base",
			event: &Event{Type: EventExplicit, BringsBackMemories: true},
			want:  0.8,
		},
		{
			name: "stress relief scales with drop",
			event: &Event{
				Type:               EventExplicit,
				BringsBackMemories: true,
				StressBefore:       fp(0.8),
				StressAfter:        fp(0.3),
			},
			want: 0.8 + 0.15*0.5,
		},
		{
			name: "stress increase adds nothing",
			event: &Event{
				Type:               EventExplicit,
				BringsBackMemories: true,
				StressBefore:       fp(0.2),
				StressAfter:        fp(0.7),
			},
			want: 0.8,
		},
		{
			name: "missing one stress reading skips bonus",
			event: &Event{
				Type:               EventExplicit,
				BringsBackMemories: true,
				StressBefore:       fp(0.9),
			},
			want: 0.8,
		},
		{
			name: "habit completion bonus",
			event: &Event{
				Type:               EventExplicit,
				BringsBackMemories: true,
				HabitCompleted:     true,
			},
			want: 0.85,
		},
		{
			// 满负荷正反馈恰好打满，不越界
			name: "full positive saturates at ceiling",
			event: &Event{
				Type:               EventExplicit,
				BringsBackMemories: true,
				StressBefore:       fp(1.0),
				StressAfter:        fp(0.0),
				HabitCompleted:     true,
			},
			want: Max,
		},
		{
			name: "stress before out of range",
			event: &Event{
				Type:               EventExplicit,
				BringsBackMemories: true,
				StressBefore:       fp(1.5),
				StressAfter:        fp(0.1),
			},
			wantErr: core.IsInvalidReward,
		},
		{
			name: "stress after negative",
			event: &Event{
				Type:               EventExplicit,
				BringsBackMemories: true,
				StressBefore:       fp(0.5),
				StressAfter:        fp(-0.1),
			},
			wantErr: core.IsInvalidReward,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compute(tt.event)
			if tt.wantErr != nil {
				if !tt.wantErr(err) {
					t.Fatalf("Compute() error = %v, want matching predicate", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Compute() error = %v", err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Compute() = %v, want %v", got, tt.want)
			}
			if got < Min || got > Max {
				t.Errorf("Compute() = %v, outside [%v, %v]", got, Min, Max)
			}
		})
	}
}

func TestCompute_Pure(t *testing.T) {
	ev := &Event{
		Type:               EventExplicit,
		BringsBackMemories: true,
		StressBefore:       fp(0.6),
		StressAfter:        fp(0.2),
		HabitCompleted:     true,
	}
	first, err := Compute(ev)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		got, err := Compute(ev)
		if err != nil {
			t.Fatalf("Compute() error = %v", err)
		}
		if got != first {
			t.Fatalf("Compute() not deterministic: %v vs %v", got, first)
		}
	}
}
