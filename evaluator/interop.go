package evaluator

import (
	"log/slog"

	"github.com/podhmo/vsharp/object"
)

// HostInterop resolves member access on host values, i.e. values that are
// not DynamicObjects. All reflection lives behind this interface.
type HostInterop interface {
	GetProperty(recv *object.GoValue, name string) (object.Object, error)
	SetProperty(recv *object.GoValue, name string, val object.Object) error
	CallMethod(recv *object.GoValue, name string, args []object.Object) (object.Object, error)
	Index(recv *object.GoValue, index object.Object) (object.Object, error)
	SetIndex(recv *object.GoValue, index, val object.Object) error
	Contains(recv *object.GoValue, item object.Object) (bool, error)
	Iterate(recv *object.GoValue) (object.Iterator, bool)
}

type reflectInterop struct {
	call   object.CallFunc
	logger *slog.Logger
}

func (ri *reflectInterop) GetProperty(recv *object.GoValue, name string) (object.Object, error) {
	if v, ok := object.HostProperty(recv.Value, name); ok {
		return v, nil
	}
	return nil, object.Errorf(object.MissingMember, "%s has no property %q", object.TypeName(recv), name)
}

func (ri *reflectInterop) SetProperty(recv *object.GoValue, name string, val object.Object) error {
	return object.SetHostProperty(recv.Value, name, val, ri.call)
}

func (ri *reflectInterop) CallMethod(recv *object.GoValue, name string, args []object.Object) (object.Object, error) {
	ri.logger.Debug("host method", "receiver", object.TypeName(recv), "method", name, "args", len(args))
	v, err := object.CallHostMethod(recv.Value, name, args, ri.call)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (ri *reflectInterop) Index(recv *object.GoValue, index object.Object) (object.Object, error) {
	return object.HostIndex(recv.Value, index)
}

func (ri *reflectInterop) SetIndex(recv *object.GoValue, index, val object.Object) error {
	return object.SetHostIndex(recv.Value, index, val, ri.call)
}

func (ri *reflectInterop) Contains(recv *object.GoValue, item object.Object) (bool, error) {
	return object.HostContains(recv.Value, item)
}

func (ri *reflectInterop) Iterate(recv *object.GoValue) (object.Iterator, bool) {
	return object.HostIterator(recv.Value)
}
