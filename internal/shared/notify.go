package shared

import "context"

// ChangeNotifier is told about writes that move dashboard figures.
type ChangeNotifier interface {
	Invalidate(ctx context.Context)
}

// NotifyChange calls n when it is set.
func NotifyChange(ctx context.Context, n ChangeNotifier) {
	if n != nil {
		n.Invalidate(ctx)
	}
}
