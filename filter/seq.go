package filter

import (
	"iter"
	"strings"

	"github.com/s0up4200/pi/api"
)

// Questions returns the questions of seq matching f, lazily. Errors of seq
// are passed through; an evaluation error is yielded and ends the sequence.
func Questions(seq iter.Seq2[api.Question, error], f Filter) iter.Seq2[api.Question, error] {
	return func(yield func(api.Question, error) bool) {
		for question, err := range seq {
			if err != nil {
				yield(question, err)
				return
			}

			match, err := f.Evaluate(question)
			if err != nil {
				yield(question, err)
				return
			}
			if match && !yield(question, nil) {
				return
			}
		}
	}
}

// Where compiles expression and filters seq with it. An empty expression
// returns seq unchanged.
func Where(seq iter.Seq2[api.Question, error], expression string) (iter.Seq2[api.Question, error], error) {
	if strings.TrimSpace(expression) == "" {
		return seq, nil
	}

	f, err := Compile(expression)
	if err != nil {
		return nil, err
	}
	return Questions(seq, f), nil
}
