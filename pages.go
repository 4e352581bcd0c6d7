package medicaodigitalx

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/brito101/medicaodigitalx/storage"
	"github.com/brito101/medicaodigitalx/storage/model"
)

const (
	privacySlug = "politica-de-privacidade"
	privacyView = "site.privacy"
)

// privacyDefaults returns the meta of the privacy policy page used when no
// override is stored
func privacyDefaults(site SiteConf) model.PageMeta {
	image, err := url.JoinPath(site.AppURL, "img/share.png")
	if err != nil || site.AppURL == "" {
		image = "/img/share.png"
	}
	return model.PageMeta{
		Title:       "Medição Digital- Política de privacidade",
		Description: "Medição Digital - Termos de nossa Política de privacidade.",
		Robots:      "index,follow",
		Image:       image,
		Canonical:   site.AppURL,
	}
}

// Pages serves the public site pages.
type Pages struct {
	kv   model.KeyValueStore
	site SiteConf
}

// NewPages creates Pages reading meta overrides from kv
func NewPages(kv model.KeyValueStore, site SiteConf) *Pages {
	return &Pages{
		kv:   kv,
		site: site,
	}
}

// PrivacyMeta returns the privacy policy meta, stored overrides merged over
// the defaults
func (p *Pages) PrivacyMeta() (model.PageMeta, error) {
	defaults := privacyDefaults(p.site)
	if p.kv == nil {
		return defaults, nil
	}
	stored, err := storage.GetPageMeta(p.kv, privacySlug)
	if err != nil {
		return model.PageMeta{}, err
	}
	if stored == nil {
		return defaults, nil
	}
	return stored.Merge(defaults), nil
}

func (p *Pages) register(r fiber.Router) {
	r.Get(
		"/"+privacySlug, func(c *fiber.Ctx) error {
			meta, err := p.PrivacyMeta()
			if err != nil {
				log.WithError(err).Error("could not load page meta")
				return fiber.NewError(fiber.StatusInternalServerError, "could not load page")
			}
			return c.JSON(
				fiber.Map{
					"view": privacyView,
					"data": fiber.Map{
						"head": meta,
					},
				},
			)
		},
	)
}
