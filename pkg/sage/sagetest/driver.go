// Package sagetest provides an in-memory implementation of the sage
// driver contract for tests: cursor-based record scans over fixture data,
// a sales order document object, and switches for injecting the failure
// modes the pool and services have to handle.
package sagetest

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dylan-buck/UAF-Auto/pkg/sage"
)

// Record is one row of fixture data, keyed by the external field names
// (for example "CustomerName$")
type Record map[string]string

// Order captures a sales order written through the fake
type Order struct {
	Number string
	Header Record
	Lines  []Record
}

// Driver is an in-memory stand-in for the automation host
type Driver struct {
	mu sync.Mutex

	Customers []Record
	ShipTos   []Record
	Orders    []Order

	// Failure injection
	FailOpen       bool // Open returns an error
	FailAuth       bool // SetUser returns 0
	FailCompany    bool // SetCompany returns 0
	FailNewObject  bool // NewObject returns an error
	FailOrderWrite string

	nextOrder int
	opened    int
	released  int
}

// NewDriver returns an empty driver. Populate Customers and ShipTos
// before use.
func NewDriver() *Driver {
	return &Driver{nextOrder: 100}
}

// Opened reports how many engines have been opened
func (d *Driver) Opened() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opened
}

// Released reports how many engines have been released
func (d *Driver) Released() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.released
}

func (d *Driver) Open(path string) (sage.Engine, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailOpen {
		return nil, fmt.Errorf("host not reachable at %s", path)
	}
	d.opened++
	return &engine{driver: d}, nil
}

type engine struct {
	driver   *Driver
	released bool
}

func (e *engine) NewSession() (sage.Session, error) {
	return &session{driver: e.driver}, nil
}

func (e *engine) NewObject(name string, _ sage.Session) (sage.Object, error) {
	e.driver.mu.Lock()
	defer e.driver.mu.Unlock()
	if e.driver.FailNewObject {
		return nil, fmt.Errorf("cannot create %s: engine unavailable", name)
	}
	switch name {
	case "AR_Customer_svc":
		return &cursorObject{name: name, records: e.driver.Customers}, nil
	case "SO_ShipToAddress_svc":
		return &cursorObject{name: name, records: e.driver.ShipTos}, nil
	case "SO_SalesOrder_bus":
		return &orderObject{driver: e.driver}, nil
	}
	return nil, fmt.Errorf("unknown object %s", name)
}

func (e *engine) Release() {
	e.driver.mu.Lock()
	defer e.driver.mu.Unlock()
	if !e.released {
		e.released = true
		e.driver.released++
	}
}

type session struct {
	driver  *Driver
	lastErr string
}

func (s *session) SetUser(user, password string) int {
	if s.driver.FailAuth {
		s.lastErr = "Invalid user or password"
		return 0
	}
	return 1
}

func (s *session) SetCompany(company string) int {
	if s.driver.FailCompany {
		s.lastErr = fmt.Sprintf("Company %s not found", company)
		return 0
	}
	return 1
}

func (s *session) SetModule(module string) int     { return 1 }
func (s *session) SetDate(module, date string) int { return 1 }
func (s *session) LastErrorMsg() string            { return s.lastErr }
func (s *session) Release()                        {}

// cursorObject exposes fixture records through the MoveFirst/MoveNext
// cursor contract used by the service objects
type cursorObject struct {
	name    string
	records []Record
	pos     int
	started bool
	lastErr string
}

func (o *cursorObject) MoveFirst() int {
	if len(o.records) == 0 {
		o.lastErr = "No records"
		return 0
	}
	o.pos = 0
	o.started = true
	return 1
}

func (o *cursorObject) MoveNext() int {
	if !o.started || o.pos+1 >= len(o.records) {
		return 0
	}
	o.pos++
	return 1
}

func (o *cursorObject) GetField(name string) (string, int) {
	if !o.started || o.pos >= len(o.records) {
		o.lastErr = "No current record"
		return "", 0
	}
	return o.records[o.pos][name], 1
}

func (o *cursorObject) SetKey(string) int                 { return 1 }
func (o *cursorObject) SetField(string, any) int          { return 1 }
func (o *cursorObject) Write() int                        { o.lastErr = "Read-only object"; return 0 }
func (o *cursorObject) Lines() (sage.Object, bool)        { return nil, false }
func (o *cursorObject) AddLine() int                      { return 0 }
func (o *cursorObject) NextDocumentNumber() (string, int) { return "", 0 }
func (o *cursorObject) LastErrorMsg() string              { return o.lastErr }
func (o *cursorObject) Release()                          {}

// orderObject implements the document object contract for sales orders
type orderObject struct {
	driver  *Driver
	number  string
	header  Record
	lines   *linesObject
	lastErr string
}

func (o *orderObject) NextDocumentNumber() (string, int) {
	o.driver.mu.Lock()
	defer o.driver.mu.Unlock()
	o.driver.nextOrder++
	return fmt.Sprintf("%07d", o.driver.nextOrder), 1
}

func (o *orderObject) SetKey(key string) int {
	o.number = key
	o.header = Record{}
	return 1
}

func (o *orderObject) SetField(name string, value any) int {
	if o.header == nil {
		o.lastErr = "Key not set"
		return 0
	}
	o.header[name] = fmt.Sprint(value)
	return 1
}

func (o *orderObject) GetField(name string) (string, int) {
	return o.header[name], 1
}

func (o *orderObject) Lines() (sage.Object, bool) {
	if o.lines == nil {
		o.lines = &linesObject{}
	}
	return o.lines, true
}

func (o *orderObject) Write() int {
	o.driver.mu.Lock()
	defer o.driver.mu.Unlock()
	if o.driver.FailOrderWrite != "" {
		o.lastErr = o.driver.FailOrderWrite
		return 0
	}
	order := Order{Number: o.number, Header: o.header}
	if o.lines != nil {
		order.Lines = o.lines.lines
	}
	o.driver.Orders = append(o.driver.Orders, order)
	return 1
}

func (o *orderObject) MoveFirst() int       { return 0 }
func (o *orderObject) MoveNext() int        { return 0 }
func (o *orderObject) AddLine() int         { return 0 }
func (o *orderObject) LastErrorMsg() string { return o.lastErr }
func (o *orderObject) Release()             {}

type linesObject struct {
	lines   []Record
	current Record
	lastErr string
}

func (l *linesObject) AddLine() int {
	l.current = Record{}
	return 1
}

func (l *linesObject) SetField(name string, value any) int {
	if l.current == nil {
		l.lastErr = "No line started"
		return 0
	}
	s := fmt.Sprint(value)
	if strings.HasSuffix(name, "$") && s == "" {
		l.lastErr = fmt.Sprintf("%s may not be blank", name)
		return 0
	}
	l.current[name] = s
	return 1
}

func (l *linesObject) Write() int {
	if l.current == nil {
		l.lastErr = "No line started"
		return 0
	}
	l.lines = append(l.lines, l.current)
	l.current = nil
	return 1
}

func (l *linesObject) GetField(name string) (string, int) {
	if l.current == nil {
		return "", 0
	}
	return l.current[name], 1
}

func (l *linesObject) SetKey(string) int                 { return 1 }
func (l *linesObject) MoveFirst() int                    { return 0 }
func (l *linesObject) MoveNext() int                     { return 0 }
func (l *linesObject) Lines() (sage.Object, bool)        { return nil, false }
func (l *linesObject) NextDocumentNumber() (string, int) { return "", 0 }
func (l *linesObject) LastErrorMsg() string              { return l.lastErr }
func (l *linesObject) Release()                          {}
