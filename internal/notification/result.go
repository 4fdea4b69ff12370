package notification

// Result is the outcome of a service call: a value, or the reasons the call
// did not succeed.
type Result[T any] struct {
	Value         T
	Notifications List
}

func OK[T any](value T) Result[T] {
	return Result[T]{Value: value}
}

func Fail[T any](n ...Notification) Result[T] {
	return Result[T]{Notifications: List(n)}
}

func FailList[T any](l List) Result[T] {
	return Result[T]{Notifications: l}
}

func (r Result[T]) Succeeded() bool {
	return !r.Notifications.HasAny()
}
