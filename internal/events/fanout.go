package events

import (
	"errors"
)

// Fanout publishes to every target and joins their failures. A failure
// in one target does not stop delivery to the others.
type Fanout struct {
	targets []Publisher
}

func NewFanout(targets ...Publisher) *Fanout {
	return &Fanout{targets: targets}
}

func (f *Fanout) Publish(event string, payload any) error {
	if len(f.targets) == 0 {
		return ErrNotInitialized
	}
	var errs []error
	for _, t := range f.targets {
		if err := t.Publish(event, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) PublishToUser(userID, event string, payload any) error {
	if len(f.targets) == 0 {
		return ErrNotInitialized
	}
	var errs []error
	for _, t := range f.targets {
		if err := t.PublishToUser(userID, event, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
