//go:build windows

package providex

import (
	"fmt"
	"sync"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"

	"github.com/dylan-buck/UAF-Auto/pkg/sage"
)

var comInit sync.Once

type driver struct{}

func newDriver() sage.Driver { return driver{} }

func (driver) Open(path string) (sage.Engine, error) {
	comInit.Do(func() {
		// S_FALSE on repeat initialization is fine
		_ = ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED)
	})

	unknown, err := oleutil.CreateObject("ProvideX.Script")
	if err != nil {
		return nil, fmt.Errorf("create ProvideX.Script: %w", err)
	}
	disp, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		unknown.Release()
		return nil, fmt.Errorf("query IDispatch: %w", err)
	}
	unknown.Release()

	if _, err := oleutil.CallMethod(disp, "Init", path); err != nil {
		disp.Release()
		return nil, fmt.Errorf("init script engine at %s: %w", path, err)
	}
	return &engine{disp: disp}, nil
}

type engine struct {
	disp *ole.IDispatch
}

func (e *engine) NewSession() (sage.Session, error) {
	v, err := oleutil.CallMethod(e.disp, "NewObject", "SY_Session")
	if err != nil {
		return nil, fmt.Errorf("create SY_Session: %w", err)
	}
	disp := v.ToIDispatch()
	if disp == nil {
		return nil, fmt.Errorf("SY_Session object is nil")
	}
	return &comSession{disp: disp}, nil
}

func (e *engine) NewObject(name string, s sage.Session) (sage.Object, error) {
	cs, ok := s.(*comSession)
	if !ok {
		return nil, fmt.Errorf("session is not a ProvideX session")
	}
	v, err := oleutil.CallMethod(e.disp, "NewObject", name, cs.disp)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}
	disp := v.ToIDispatch()
	if disp == nil {
		return nil, fmt.Errorf("%s object is nil", name)
	}
	return &comObject{disp: disp}, nil
}

func (e *engine) Release() {
	if e.disp != nil {
		e.disp.Release()
		e.disp = nil
	}
}

type comSession struct {
	disp *ole.IDispatch
}

func (s *comSession) SetUser(user, password string) int {
	return callInt(s.disp, "nSetUser", user, password)
}

func (s *comSession) SetCompany(company string) int {
	return callInt(s.disp, "nSetCompany", company)
}

func (s *comSession) SetModule(module string) int {
	return callInt(s.disp, "nSetModule", module)
}

func (s *comSession) SetDate(module, date string) int {
	return callInt(s.disp, "nSetDate", module, date)
}

func (s *comSession) LastErrorMsg() string { return lastError(s.disp) }

func (s *comSession) Release() {
	if s.disp != nil {
		s.disp.Release()
		s.disp = nil
	}
}

type comObject struct {
	disp *ole.IDispatch
}

func (o *comObject) SetKey(key string) int {
	return callInt(o.disp, "nSetKey", key)
}

func (o *comObject) SetField(name string, value any) int {
	return callInt(o.disp, "nSetValue", name, value)
}

func (o *comObject) GetField(name string) (string, int) {
	out := ole.NewVariant(ole.VT_BSTR, 0)
	defer out.Clear()
	code := callInt(o.disp, "nGetValue", name, &out)
	return out.ToString(), code
}

func (o *comObject) MoveFirst() int { return callInt(o.disp, "nMoveFirst") }
func (o *comObject) MoveNext() int  { return callInt(o.disp, "nMoveNext") }
func (o *comObject) Write() int     { return callInt(o.disp, "nWrite") }
func (o *comObject) AddLine() int   { return callInt(o.disp, "nAddLine") }

func (o *comObject) Lines() (sage.Object, bool) {
	v, err := oleutil.GetProperty(o.disp, "oLines")
	if err != nil {
		return nil, false
	}
	disp := v.ToIDispatch()
	if disp == nil {
		return nil, false
	}
	return &comObject{disp: disp}, true
}

func (o *comObject) NextDocumentNumber() (string, int) {
	out := ole.NewVariant(ole.VT_BSTR, 0)
	defer out.Clear()
	code := callInt(o.disp, "nGetNextSalesOrderNo", &out)
	return out.ToString(), code
}

func (o *comObject) LastErrorMsg() string { return lastError(o.disp) }

func (o *comObject) Release() {
	if o.disp != nil {
		o.disp.Release()
		o.disp = nil
	}
}

func callInt(disp *ole.IDispatch, method string, args ...any) int {
	v, err := oleutil.CallMethod(disp, method, args...)
	if err != nil {
		return 0
	}
	defer v.Clear()
	switch n := v.Value().(type) {
	case int64:
		return int(n)
	case int32:
		return int(n)
	case int16:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}

func lastError(disp *ole.IDispatch) string {
	v, err := oleutil.GetProperty(disp, "sLastErrorMsg")
	if err != nil {
		return ""
	}
	defer v.Clear()
	return v.ToString()
}
