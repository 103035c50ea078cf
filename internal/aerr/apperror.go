package aerr

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// AppError is the application error carried between layers. Value is
// immutable; every With* method return a modified copy.
type AppError struct {
	err     error
	tags    []string
	msg     string
	userMsg string
	meta    map[string]any
	stack   []string
}

// New create error without stack trace; use for sentinels.
func New(msg string, args ...any) AppError {
	return AppError{msg: fmt.Sprintf(msg, args...)}
}

// Newf create error with stack captured at call site.
func Newf(msg string, args ...any) AppError {
	return AppError{
		msg:   fmt.Sprintf(msg, args...),
		stack: captureStack(),
	}
}

func Wrap(err error) AppError {
	return AppError{
		err:   err,
		stack: captureStack(),
	}
}

func Wrapf(err error, msg string, args ...any) AppError {
	return AppError{
		err:   err,
		msg:   fmt.Sprintf(msg, args...),
		stack: captureStack(),
	}
}

func (e AppError) WithMsg(msg string, args ...any) AppError {
	ne := e.dup()
	ne.msg = fmt.Sprintf(msg, args...)

	return ne
}

func (e AppError) WithUserMsg(msg string, args ...any) AppError {
	ne := e.dup()
	ne.userMsg = fmt.Sprintf(msg, args...)

	return ne
}

func (e AppError) WithTag(tag string) AppError {
	if slices.Contains(e.tags, tag) {
		return e
	}

	ne := e.dup()
	ne.tags = append(ne.tags, tag)

	return ne
}

func (e AppError) WithMeta(keyval ...any) AppError {
	if len(keyval)%2 != 0 {
		panic("WithMeta require key, value pairs")
	}

	ne := e.dup()

	if ne.meta == nil {
		ne.meta = make(map[string]any)
	}

	for i := 0; i+1 < len(keyval); i += 2 {
		key, ok := keyval[i].(string)
		if !ok {
			key = fmt.Sprint(keyval[i])
		}

		ne.meta[key] = keyval[i+1]
	}

	return ne
}

// WithError replace wrapped error and refresh the stack trace.
func (e AppError) WithError(err error) AppError {
	ne := e.dup()
	ne.err = err
	ne.stack = captureStack()

	return ne
}

// dup make a field-wise copy; stack is shared, slices and maps are not.
func (e AppError) dup() AppError {
	return AppError{
		err:     e.err,
		tags:    slices.Clone(e.tags),
		msg:     e.msg,
		userMsg: e.userMsg,
		meta:    maps.Clone(e.meta),
		stack:   e.stack,
	}
}

//-------------------------------------------------------------

func (e AppError) Error() string {
	if e.msg == "" {
		if e.err == nil {
			return "unknown error"
		}

		return e.err.Error()
	}

	if e.err == nil {
		return e.msg
	}

	return e.msg + "(" + e.err.Error() + ")"
}

func (e AppError) Unwrap() error {
	return e.err
}

func (e AppError) Is(target error) bool {
	te, ok := target.(AppError)
	if !ok {
		return false
	}

	return te.err == e.err && te.msg == e.msg && te.userMsg == e.userMsg &&
		slices.Compare(te.tags, e.tags) == 0 &&
		slices.Compare(te.stack, e.stack) == 0 &&
		maps.Equal(te.meta, e.meta)
}

// String return message suitable for end user.
func (e AppError) String() string {
	if e.userMsg != "" {
		return e.userMsg
	}

	if e.msg != "" {
		return e.msg
	}

	return e.err.Error()
}

func (e AppError) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		fmt.Fprintf(s, "%+v\n", CollectErrors(e))

		return
	}

	if verb == 'v' || verb == 's' || verb == 'q' {
		io.WriteString(s, e.Error())
	}
}

//-------------------------------------------------------------

// ApplyFor make copy of template error with given cause and fresh stack.
// Optional msg arguments override msg and userMsg when not empty.
func ApplyFor(template AppError, err error, msg ...string) AppError {
	if err == nil {
		panic("nil error applied to AppError template")
	}

	ne := template.dup()
	ne.err = err
	ne.stack = captureStack()

	if len(msg) > 0 && msg[0] != "" {
		ne.msg = msg[0]
	}

	if len(msg) > 1 && msg[1] != "" {
		ne.userMsg = msg[1]
	}

	return ne
}

func AsAppError(err error) (AppError, bool) {
	var ae AppError
	if errors.As(err, &ae) {
		return ae, true
	}

	return ae, false
}

//-------------------------------------------------------------

// Flatten collect AppError values from the chain, innermost first.
func Flatten(err error) []AppError {
	if err == nil {
		return nil
	}

	errs := Flatten(errors.Unwrap(err))

	if ae, ok := err.(AppError); ok { //nolint:errorlint
		errs = append(errs, ae)
	}

	return errs
}

func HasTag(err error, tag string) bool {
	for _, ae := range Flatten(err) {
		if slices.Contains(ae.tags, tag) {
			return true
		}
	}

	return false
}

func GetTags(err error) []string {
	tags := []string{}

	for _, ae := range Flatten(err) {
		tags = appendUnique(tags, ae.tags...)
	}

	return tags
}

// GetUserMessage return innermost user message in the chain or empty string.
func GetUserMessage(err error) string {
	for _, ae := range Flatten(err) {
		if ae.userMsg != "" {
			return ae.userMsg
		}
	}

	return ""
}

func GetUserMessageOr(err error, defaultmsg string) string {
	if msg := GetUserMessage(err); msg != "" {
		return msg
	}

	return defaultmsg
}

// CollectErrors render the chain for debugging, innermost first, with
// location, tags and meta for AppError links.
func CollectErrors(err error) []string {
	lines := []string{}

	for ; err != nil; err = errors.Unwrap(err) {
		ae, ok := err.(AppError) //nolint:errorlint
		if !ok {
			lines = append(lines, err.Error())

			continue
		}

		line := ae.Error()
		if len(ae.stack) > 0 {
			line += " [" + ae.stack[0] + "]"
		}

		lines = append(lines, fmt.Sprintf("%s%v/%v", line, ae.tags, ae.meta))
	}

	slices.Reverse(lines)

	return lines
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		if !slices.Contains(dst, v) {
			dst = append(dst, v)
		}
	}

	return dst
}

//-------------------------------------------------------------

// chainSummary aggregate the error chain for logging: messages and user
// messages innermost first, deepest captured stack, merged tags and meta.
type chainSummary struct {
	msgs     []string
	usermsgs []string
	tags     []string
	stack    []string
	meta     map[string]any
}

func summarizeChain(err error) chainSummary {
	var sum chainSummary

	for ; err != nil; err = errors.Unwrap(err) {
		ae, ok := err.(AppError) //nolint:errorlint
		if !ok {
			sum.msgs = append(sum.msgs, err.Error())

			continue
		}

		if ae.msg != "" {
			sum.msgs = append(sum.msgs, ae.msg)
		}

		if ae.userMsg != "" {
			sum.usermsgs = appendUnique(sum.usermsgs, ae.userMsg)
		}

		if ae.stack != nil {
			sum.stack = ae.stack
		}

		sum.tags = appendUnique(sum.tags, ae.tags...)

		if len(ae.meta) > 0 {
			if sum.meta == nil {
				sum.meta = make(map[string]any)
			}

			maps.Copy(sum.meta, ae.meta)
		}
	}

	slices.Reverse(sum.msgs)
	slices.Reverse(sum.usermsgs)

	return sum
}

type errChainMarshaller struct {
	err error
}

func (m errChainMarshaller) MarshalZerologObject(event *zerolog.Event) {
	sum := summarizeChain(m.err)

	if len(sum.usermsgs) > 0 {
		event.Strs("user_msg", sum.usermsgs)
	}

	if sum.stack != nil {
		event.Strs("stack", sum.stack)
	}

	if len(sum.msgs) > 0 {
		event.Strs("errors", sum.msgs)
	}

	if len(sum.tags) > 0 {
		event.Strs("tags", sum.tags)
	}

	if sum.meta != nil {
		event.Any("meta", sum.meta)
	}
}

// ErrorMarshalFunc is plugged into zerolog.ErrorMarshalFunc.
func ErrorMarshalFunc(err error) any {
	if err != nil {
		return errChainMarshaller{err}
	}

	return err
}

//-------------------------------------------------------------

const maxStackDepth = 10

var stackSkipFuncs = []string{
	"net/http.HandlerFunc.ServeHTTP",
	"runtime.goexit",
}

// shortFuncName strip package path from fully qualified function name,
// keeping receiver type and method.
func shortFuncName(name string) string {
	name = name[strings.LastIndex(name, "/")+1:]

	return name[strings.Index(name, ".")+1:]
}

func captureStack() []string {
	const skipCallers = 3

	pc := make([]uintptr, 32) //nolint:mnd
	n := runtime.Callers(skipCallers, pc)
	if n == 0 {
		return nil
	}

	stack := make([]string, 0, n)
	frames := runtime.CallersFrames(pc[:n])

	for len(stack) < maxStackDepth {
		frame, more := frames.Next()

		if name := frame.Function; name != "" && !slices.Contains(stackSkipFuncs, name) {
			stack = append(stack, frame.File+":"+strconv.Itoa(frame.Line)+":"+shortFuncName(name))
		}

		if !more {
			break
		}
	}

	return stack
}
