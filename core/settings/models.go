package settings

// HomeCustomization is the editable content of the public home page.
type HomeCustomization struct {
	Logo            string `json:"logo"`
	PrefeituraNome  string `json:"prefeituraNome" validate:"required"`
	Secretaria      string `json:"secretaria" validate:"required"`
	HeroTitle       string `json:"heroTitle" validate:"required"`
	HeroDescription string `json:"heroDescription"`
	Copyright       string `json:"copyright"`
	FacebookURL     string `json:"facebookUrl" validate:"socialurl"`
	InstagramURL    string `json:"instagramUrl" validate:"socialurl"`
	TwitterURL      string `json:"twitterUrl" validate:"socialurl"`
	YoutubeURL      string `json:"youtubeUrl" validate:"socialurl"`
}

func (h *HomeCustomization) Clean() {
	for _, s := range []*string{
		&h.Logo, &h.PrefeituraNome, &h.Secretaria, &h.HeroTitle, &h.HeroDescription,
		&h.Copyright, &h.FacebookURL, &h.InstagramURL, &h.TwitterURL, &h.YoutubeURL,
	} {
		*s = cleanString(*s)
	}
}

func DefaultHome() HomeCustomization {
	return HomeCustomization{
		Logo:            "/placeholder.svg",
		PrefeituraNome:  "Prefeitura Municipal",
		Secretaria:      "Secretaria de Educação",
		HeroTitle:       "Censo Escolar 2024",
		HeroDescription: "Participe do levantamento oficial das informações educacionais. Sua escola faz a diferença na construção de políticas públicas eficazes.",
		Copyright:       "© 2024 Prefeitura Municipal. Todos os direitos reservados.",
		FacebookURL:     "#",
		InstagramURL:    "#",
		TwitterURL:      "#",
		YoutubeURL:      "#",
	}
}

// Form field types
const (
	FieldText     = "text"
	FieldNumber   = "number"
	FieldSelect   = "select"
	FieldCheckbox = "checkbox"
	FieldTextarea = "textarea"
)

var FieldTypes = []string{FieldText, FieldNumber, FieldSelect, FieldCheckbox, FieldTextarea}

// FormField describes one question of the configurable census form.
type FormField struct {
	ID          string   `json:"id"`
	Type        string   `json:"type" validate:"required,fieldtype"`
	Label       string   `json:"label" validate:"required"`
	Placeholder string   `json:"placeholder,omitempty"`
	Required    bool     `json:"required"`
	Options     []string `json:"options,omitempty" validate:"omitempty,dive,required"`
}

func (f *FormField) Clean() {
	f.ID = cleanString(f.ID)
	f.Type = cleanString(f.Type, true /* lower */)
	f.Label = cleanString(f.Label)
	f.Placeholder = cleanString(f.Placeholder)
	if f.Type != FieldSelect && f.Type != FieldCheckbox {
		f.Options = nil
		return
	}
	for i := range f.Options {
		f.Options[i] = cleanString(f.Options[i])
	}
}

func DefaultFormFields() []FormField {
	return []FormField{
		{ID: "1", Type: FieldSelect, Label: "Escola", Required: true},
		{ID: "2", Type: FieldNumber, Label: "Número de Salas de Aula", Placeholder: "Digite o número de salas", Required: true},
		{
			ID:       "3",
			Type:     FieldCheckbox,
			Label:    "Modalidades de Ensino",
			Required: true,
			Options:  []string{"Anos iniciais", "Anos Finais", "EJA", "Educação Infantil"},
		},
	}
}
