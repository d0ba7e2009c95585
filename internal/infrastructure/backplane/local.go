package backplane

import "context"

// Local is the single-instance backplane. Nothing leaves the process.
type Local struct {
	instanceID string
}

func NewLocal(instanceID string) *Local {
	return &Local{instanceID: instanceID}
}

func (l *Local) InstanceID() string {
	return l.instanceID
}

func (l *Local) Publish(context.Context, Envelope) error {
	return nil
}

func (l *Local) Subscribe(ctx context.Context, _ Handler) error {
	<-ctx.Done()
	return nil
}

func (l *Local) Close() error {
	return nil
}
