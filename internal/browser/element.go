package browser

import (
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

const clickTimeout = 5 * time.Second

type element struct {
	el *rod.Element
}

func wrapElements(els rod.Elements) []Element {
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &element{el: el})
	}
	return out
}

func (e *element) Text() (string, error) {
	return e.el.Text()
}

func (e *element) Attribute(name string) (string, bool, error) {
	v, err := e.el.Attribute(name)
	if err != nil || v == nil {
		return "", false, err
	}
	return *v, true, nil
}

func (e *element) InnerHTML() (string, error) {
	res, err := e.el.Eval(`() => this.innerHTML`)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

// Click 左键单击，元素在 clickTimeout 内不可点击则失败
func (e *element) Click() error {
	el := e.el.Timeout(clickTimeout)
	defer el.CancelTimeout()
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (e *element) Has(selector string) (Element, bool, error) {
	ok, el, err := e.el.Has(selector)
	if err != nil || !ok {
		return nil, false, err
	}
	return &element{el: el}, true, nil
}
