//go:build !windows && !linux && !darwin

package priority

type unsupportedAPI struct{}

// System returns an API that refuses every call.
func System() API {
	return unsupportedAPI{}
}

func (unsupportedAPI) Open(int32, Access) (Handle, error) {
	return nil, ErrUnsupported
}

func (unsupportedAPI) Class(Handle) (Class, error) {
	return ClassUnknown, ErrUnsupported
}

func (unsupportedAPI) SetClass(Handle, Class) error {
	return ErrUnsupported
}
