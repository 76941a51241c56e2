package catalog

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"vitrina/internal"
	"vitrina/internal/util"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrProductNotFound  = errors.New("product not found")
)

// Editor owns a catalog. Every operation reconciles the catalog before and
// after it mutates it, as one turn under the editor's lock.
type Editor struct {
	mu      sync.Mutex
	catalog internal.Catalog
}

func NewEditor(raw any) *Editor {
	return &Editor{catalog: Reconcile(raw)}
}

func (e *Editor) Snapshot() internal.Catalog {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.catalog.Clone()
}

func (e *Editor) apply(fn func(c *internal.Catalog) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	working := Reconcile(e.catalog)
	if err := fn(&working); err != nil {
		return err
	}
	e.catalog = Reconcile(working)
	return nil
}

// Replace swaps the whole catalog, e.g. after an import.
func (e *Editor) Replace(raw any) internal.Catalog {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.catalog = Reconcile(raw)
	return e.catalog.Clone()
}

func (e *Editor) Select(categoryID string) error {
	return e.apply(func(c *internal.Catalog) error {
		if _, ok := c.CategoryByID(categoryID); !ok {
			return fmt.Errorf("%w: %s", ErrCategoryNotFound, categoryID)
		}
		c.CurrentCategory = categoryID
		return nil
	})
}

func (e *Editor) UpdateConfig(cfg internal.Config) error {
	if err := ValidateConfig(cfg); err != nil {
		return err
	}
	return e.apply(func(c *internal.Catalog) error {
		c.Config = cfg
		return nil
	})
}

func (e *Editor) AddCategory(in CategoryInput) (string, error) {
	if err := ValidateCategory(in); err != nil {
		return "", err
	}
	var id string
	err := e.apply(func(c *internal.Catalog) error {
		id = util.Uniquify(util.Slugify(in.Name), categoryIDs(*c))
		c.Categories = append(c.Categories, internal.Category{
			ID:          id,
			Name:        strings.TrimSpace(in.Name),
			Icon:        util.FirstNonEmpty(in.Icon, DefaultIcon),
			Description: strings.TrimSpace(in.Description),
		})
		c.Products[id] = []internal.Product{}
		c.CurrentCategory = id
		return nil
	})
	return id, err
}

// UpdateCategory renames or redescribes a category. Its id never changes.
func (e *Editor) UpdateCategory(id string, in CategoryInput) error {
	if err := ValidateCategory(in); err != nil {
		return err
	}
	return e.apply(func(c *internal.Catalog) error {
		pos := categoryPosition(*c, id)
		if pos < 0 {
			return fmt.Errorf("%w: %s", ErrCategoryNotFound, id)
		}
		c.Categories[pos].Name = strings.TrimSpace(in.Name)
		c.Categories[pos].Icon = util.FirstNonEmpty(in.Icon, DefaultIcon)
		c.Categories[pos].Description = strings.TrimSpace(in.Description)
		return nil
	})
}

// MoveCategory shifts a category by delta positions, clamped to the list.
func (e *Editor) MoveCategory(id string, delta int) error {
	return e.apply(func(c *internal.Catalog) error {
		pos := categoryPosition(*c, id)
		if pos < 0 {
			return fmt.Errorf("%w: %s", ErrCategoryNotFound, id)
		}
		c.Categories = moveItem(c.Categories, pos, pos+delta)
		return nil
	})
}

// DeleteCategory removes the category together with its bucket.
func (e *Editor) DeleteCategory(id string) error {
	return e.apply(func(c *internal.Catalog) error {
		pos := categoryPosition(*c, id)
		if pos < 0 {
			return fmt.Errorf("%w: %s", ErrCategoryNotFound, id)
		}
		c.Categories = append(c.Categories[:pos], c.Categories[pos+1:]...)
		delete(c.Products, id)
		return nil
	})
}

func (e *Editor) AddProduct(categoryID string, in ProductInput) (string, error) {
	if err := ValidateProduct(in); err != nil {
		return "", err
	}
	var id string
	err := e.apply(func(c *internal.Catalog) error {
		if categoryID == "" {
			categoryID = c.CurrentCategory
		}
		if _, ok := c.CategoryByID(categoryID); !ok {
			return fmt.Errorf("%w: %s", ErrCategoryNotFound, categoryID)
		}
		id = util.Uniquify(productIDFor(in.Name), productIDs(*c))
		c.Products[categoryID] = append(c.Products[categoryID], in.product(id))
		return nil
	})
	return id, err
}

// UpdateProduct rewrites a product in place when categoryID is its current
// category (or empty). Otherwise the product leaves its bucket and is appended
// to the target bucket.
func (e *Editor) UpdateProduct(productID, categoryID string, in ProductInput) error {
	if err := ValidateProduct(in); err != nil {
		return err
	}
	return e.apply(func(c *internal.Catalog) error {
		loc, ok := BuildIndex(*c).ByProductID[productID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrProductNotFound, productID)
		}
		if categoryID == "" {
			categoryID = loc.CategoryID
		}
		if _, ok := c.CategoryByID(categoryID); !ok {
			return fmt.Errorf("%w: %s", ErrCategoryNotFound, categoryID)
		}

		updated := in.product(productID)
		if categoryID == loc.CategoryID {
			c.Products[categoryID][loc.Position] = updated
			return nil
		}
		old := c.Products[loc.CategoryID]
		c.Products[loc.CategoryID] = append(old[:loc.Position:loc.Position], old[loc.Position+1:]...)
		c.Products[categoryID] = append(c.Products[categoryID], updated)
		return nil
	})
}

// MoveProduct shifts a product by delta positions inside its bucket.
func (e *Editor) MoveProduct(productID string, delta int) error {
	return e.apply(func(c *internal.Catalog) error {
		loc, ok := BuildIndex(*c).ByProductID[productID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrProductNotFound, productID)
		}
		c.Products[loc.CategoryID] = moveItem(c.Products[loc.CategoryID], loc.Position, loc.Position+delta)
		return nil
	})
}

func (e *Editor) DeleteProduct(productID string) error {
	return e.apply(func(c *internal.Catalog) error {
		loc, ok := BuildIndex(*c).ByProductID[productID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrProductNotFound, productID)
		}
		bucket := c.Products[loc.CategoryID]
		c.Products[loc.CategoryID] = append(bucket[:loc.Position:loc.Position], bucket[loc.Position+1:]...)
		return nil
	})
}

type ImportResult struct {
	Added             int
	Updated           int
	CategoriesCreated int
}

// ImportProducts merges imported lines. Lines whose product id exists update
// that product's non-empty fields; the rest are appended to the category named
// by the line (created when missing) or to the selected category.
func (e *Editor) ImportProducts(items []internal.ImportedProduct) (ImportResult, error) {
	var res ImportResult
	err := e.apply(func(c *internal.Catalog) error {
		ids := productIDs(*c)
		for _, item := range items {
			if strings.TrimSpace(item.Product.Name) == "" && item.Product.ID == "" {
				continue
			}

			idx := BuildIndex(*c)
			if loc, ok := idx.ByProductID[item.Product.ID]; ok && item.Product.ID != "" {
				c.Products[loc.CategoryID][loc.Position] = mergeProduct(loc.Product, item.Product)
				res.Updated++
				continue
			}

			categoryID, created := ensureCategory(c, item.Category)
			if created {
				res.CategoriesCreated++
			}
			p := item.Product
			if p.Features == nil {
				p.Features = []string{}
			}
			p.ID = util.Uniquify(productIDFor(p.Name), ids)
			ids[p.ID] = struct{}{}
			c.Products[categoryID] = append(c.Products[categoryID], p)
			res.Added++
		}
		return nil
	})
	return res, err
}

func ensureCategory(c *internal.Catalog, name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		if c.CurrentCategory != "" {
			return c.CurrentCategory, false
		}
		name = DefaultCategories()[0].Name
	}
	slug := util.Slugify(name)
	for _, cat := range c.Categories {
		if cat.ID == slug || strings.EqualFold(cat.Name, name) {
			return cat.ID, false
		}
	}
	id := util.Uniquify(slug, categoryIDs(*c))
	c.Categories = append(c.Categories, internal.Category{ID: id, Name: name, Icon: DefaultIcon})
	c.Products[id] = []internal.Product{}
	return id, true
}

func mergeProduct(base, patch internal.Product) internal.Product {
	out := base
	pick := func(dst *string, v string) {
		if strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	pick(&out.Name, patch.Name)
	pick(&out.ShortDesc, patch.ShortDesc)
	pick(&out.LongDesc, patch.LongDesc)
	pick(&out.Price, patch.Price)
	pick(&out.Specs, patch.Specs)
	pick(&out.Image, patch.Image)
	pick(&out.Icon, patch.Icon)
	if len(patch.Features) > 0 {
		out.Features = append([]string{}, patch.Features...)
	}
	return out
}

func categoryIDs(c internal.Catalog) map[string]struct{} {
	out := make(map[string]struct{}, len(c.Categories))
	for _, cat := range c.Categories {
		out[cat.ID] = struct{}{}
	}
	return out
}

func productIDs(c internal.Catalog) map[string]struct{} {
	out := map[string]struct{}{}
	for _, bucket := range c.Products {
		for _, p := range bucket {
			out[p.ID] = struct{}{}
		}
	}
	return out
}

func categoryPosition(c internal.Catalog, id string) int {
	for i, cat := range c.Categories {
		if cat.ID == id {
			return i
		}
	}
	return -1
}

func moveItem[T any](items []T, from, to int) []T {
	if from < 0 || from >= len(items) {
		return items
	}
	if to < 0 {
		to = 0
	}
	if to >= len(items) {
		to = len(items) - 1
	}
	if from == to {
		return items
	}
	item := items[from]
	rest := append(append([]T{}, items[:from]...), items[from+1:]...)
	out := make([]T, 0, len(items))
	out = append(out, rest[:to]...)
	out = append(out, item)
	out = append(out, rest[to:]...)
	return out
}
