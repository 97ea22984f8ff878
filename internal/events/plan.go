package events

import "time"

// PlanStart is emitted before a transaction plan begins executing.
type PlanStart struct {
	Leaves int
}

// PlanFinish is emitted after a plan run settles, failed or not.
type PlanFinish struct {
	Leaves     int
	Successful int
	Failed     int
	Canceled   int
	Err        error
	Duration   time.Duration
}

// NodeStart is emitted before a single unit of work executes.
type NodeStart struct {
	Path string
}

// NodeFinish is emitted after a single unit of work settles.
type NodeFinish struct {
	Path     string
	Status   string
	Err      error
	Duration time.Duration
}
