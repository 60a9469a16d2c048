package progress

import (
	"context"
	"fmt"
	"time"
)

type recordCounter struct {
	records int
}

func (s *recordCounter) Consume(_ context.Context, batch []Event) error {
	for _, evt := range batch {
		s.records += evt.Records
	}
	return nil
}

func (s *recordCounter) Close(context.Context) error {
	return nil
}

// ExampleHub_Emit reports two finished day units and flushes on Close.
func ExampleHub_Emit() {
	sink := &recordCounter{}
	hub := NewHub(Config{MaxBatchEvents: 1}, sink)

	for i, day := range []string{"2024-03-01", "2024-02-29"} {
		hub.Emit(Event{
			RunID:   "run-1",
			TS:      time.Unix(int64(i), 0),
			Stage:   StageUnitDone,
			Level:   "days",
			Unit:    day,
			Records: 3,
		})
	}
	if err := hub.Close(context.Background()); err != nil {
		panic(err)
	}

	fmt.Printf("records reported: %d\n", sink.records)
	// Output:
	// records reported: 6
}
