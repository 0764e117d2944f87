// Package export collects pipeline triples into an in-memory graph and
// serializes them as Turtle, N-Triples or JSON-LD.
package export

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/c360studio/semcode/vocabulary/mcal"
)

// IRI is an absolute resource identifier used as a triple object.
type IRI string

// Literal is an RDF literal. An empty Datatype with an empty Lang is a plain
// xsd:string literal.
type Literal struct {
	Value    string
	Datatype string
	Lang     string
}

// String returns an xsd:string literal.
func String(v string) Literal {
	return Literal{Value: v}
}

// LangString returns a language-tagged literal.
func LangString(v, lang string) Literal {
	return Literal{Value: v, Lang: lang}
}

// Typed returns a literal with an explicit datatype IRI.
func Typed(v, datatype string) Literal {
	return Literal{Value: v, Datatype: datatype}
}

// Date returns an xsd:date literal for the calendar day of t in UTC.
func Date(t time.Time) Literal {
	return Literal{Value: t.UTC().Format("2006-01-02"), Datatype: mcal.XSDDate}
}

// DateTime returns an xsd:dateTime literal.
func DateTime(t time.Time) Literal {
	return Literal{Value: t.UTC().Format(time.RFC3339), Datatype: mcal.XSDDateTime}
}

// Triple is one statement. Object holds an IRI, a Literal, or a plain Go
// value (string, integer, float, bool, time.Time) converted on write.
type Triple struct {
	Subject   string
	Predicate string
	Object    any
}

// term is the normalized form of an object.
type term struct {
	iri     bool
	value   string
	dtype   string
	lang    string
	numeric bool
	boolean bool
}

func (t term) key() string {
	if t.iri {
		return "<" + t.value + ">"
	}
	return strconv.Quote(t.value) + "^^" + t.dtype + "@" + t.lang
}

// toTerm normalizes a triple object.
func toTerm(obj any) (term, error) {
	switch v := obj.(type) {
	case IRI:
		if v == "" {
			return term{}, fmt.Errorf("empty IRI object")
		}
		return term{iri: true, value: string(v)}, nil
	case Literal:
		dtype := v.Datatype
		if v.Lang != "" {
			dtype = ""
		} else if dtype == "" {
			dtype = mcal.XSDString
		}
		return term{value: v.Value, dtype: dtype, lang: v.Lang}, nil
	case *Literal:
		if v == nil {
			return term{}, fmt.Errorf("nil literal object")
		}
		return toTerm(*v)
	case string:
		return term{value: v, dtype: mcal.XSDString}, nil
	case int:
		return integer(int64(v)), nil
	case int32:
		return integer(int64(v)), nil
	case int64:
		return integer(v), nil
	case uint:
		return term{value: strconv.FormatUint(uint64(v), 10), dtype: mcal.XSDInteger, numeric: true}, nil
	case float32:
		return decimal(float64(v))
	case float64:
		return decimal(v)
	case bool:
		return term{value: strconv.FormatBool(v), dtype: mcal.XSDBoolean, boolean: true}, nil
	case time.Time:
		l := DateTime(v)
		return term{value: l.Value, dtype: l.Datatype}, nil
	case nil:
		return term{}, fmt.Errorf("nil object")
	case fmt.Stringer:
		return term{value: v.String(), dtype: mcal.XSDString}, nil
	default:
		return term{}, fmt.Errorf("unsupported object type %T", obj)
	}
}

func integer(v int64) term {
	return term{value: strconv.FormatInt(v, 10), dtype: mcal.XSDInteger, numeric: true}
}

func decimal(v float64) (term, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return term{}, fmt.Errorf("non-finite decimal %v", v)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	return term{value: s, dtype: mcal.XSDDecimal, numeric: true}, nil
}
