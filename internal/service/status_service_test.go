package service

import (
	"context"
	"testing"
	"time"

	"github.com/plantcare/internal/care"
)

func TestStatusServiceFollowsCareLifecycle(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	now := testBase
	store := NewCareEventStore(gdb)
	plants := NewPlantService(gdb, store).WithClock(fixedClock(&now))
	statuses := NewStatusService(gdb, store).WithClock(fixedClock(&now))
	ctx := context.Background()

	input := validInput()
	input.WateringIntervalDays = 7
	plant, _, err := plants.Create(ctx, 1, input)
	if err != nil {
		t.Fatalf("create plant: %v", err)
	}

	steps := []struct {
		name     string
		advance  time.Duration
		markDone bool
		want     care.Status
	}{
		{name: "fresh plant", want: care.Fine},
		{name: "five days later", advance: 5 * care.Day, want: care.DueSoon},
		{name: "one millisecond late", advance: 2*care.Day + time.Millisecond, want: care.Overdue},
		{name: "watered", markDone: true, want: care.RecentlyCared},
		{name: "a day after watering", advance: care.Day, want: care.Fine},
	}

	for _, step := range steps {
		now = now.Add(step.advance)
		if step.markDone {
			if _, err := plants.MarkDone(ctx, plant.ID, 1, care.Watering); err != nil {
				t.Fatalf("%s: mark done: %v", step.name, err)
			}
		}

		view, err := statuses.Evaluate(ctx, plant.ID)
		if err != nil {
			t.Fatalf("%s: evaluate: %v", step.name, err)
		}
		if view.Status != step.want {
			t.Fatalf("%s: status %s, want %s", step.name, view.Status, step.want)
		}
		if len(view.Outstanding) != 2 {
			t.Fatalf("%s: expected 2 outstanding events, got %d", step.name, len(view.Outstanding))
		}
	}

	snapshots, err := statuses.Snapshots(ctx, []uint{plant.ID, 999})
	if err != nil {
		t.Fatalf("snapshots: %v", err)
	}
	if len(snapshots) != 1 || snapshots[plant.ID].Status != care.Fine.String() {
		t.Fatalf("unexpected snapshots: %+v", snapshots)
	}
}

func TestStatusServiceWithoutEventsIsFine(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	plant := seedPlant(t, gdb, "Bare")
	statuses := NewStatusService(gdb, NewCareEventStore(gdb))

	view, err := statuses.Evaluate(context.Background(), plant.ID)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if view.Status != care.Fine || len(view.Outstanding) != 0 {
		t.Fatalf("unexpected view: %+v", view)
	}
}
