package model

// Payload is a fully rendered message: one Telegram call carries all of it.
type Payload struct {
	Text  string
	Media *Media
	// Buttons holds keyboard rows, one button per row.
	Buttons [][]Button
}

func (p *Payload) Empty() bool {
	return p == nil || (p.Text == "" && p.Media == nil)
}

func (p *Payload) HasMedia() bool { return p != nil && p.Media != nil }

// WithoutMedia returns a text-only copy keeping the keyboard.
func (p *Payload) WithoutMedia() *Payload {
	return &Payload{Text: p.Text, Buttons: p.Buttons}
}
