package firestore

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/firestore"

	"github.com/marketbay/api/internal/domain"
	pfirestore "github.com/marketbay/api/internal/platform/firestore"
)

const productCollection = "products"

type productDocument struct {
	Name        string  `firestore:"name"`
	Description string  `firestore:"description"`
	PriceCents  int64   `firestore:"price"`
	Image       string  `firestore:"image"`
	Category    string  `firestore:"category"`
	InStock     bool    `firestore:"inStock"`
	Rating      float64 `firestore:"rating"`
	Reviews     int     `firestore:"reviews"`
	DiscountPct int     `firestore:"discount"`
}

// ProductRepository persists catalog products within Firestore.
type ProductRepository struct {
	base *pfirestore.BaseRepository[productDocument]
}

// NewProductRepository constructs a Firestore-backed product repository.
func NewProductRepository(provider *pfirestore.Provider) (*ProductRepository, error) {
	if provider == nil {
		return nil, errors.New("product repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[productDocument](provider, productCollection, nil, nil)
	return &ProductRepository{base: base}, nil
}

// Count returns the number of catalog documents.
func (r *ProductRepository) Count(ctx context.Context) (int64, error) {
	if r == nil || r.base == nil {
		return 0, errors.New("product repository not initialised")
	}
	return r.base.Count(ctx)
}

// InsertMany bulk-writes the provided products keyed by their IDs.
func (r *ProductRepository) InsertMany(ctx context.Context, products []domain.Product) error {
	if r == nil || r.base == nil {
		return errors.New("product repository not initialised")
	}
	if len(products) == 0 {
		return nil
	}

	docs := make(map[string]productDocument, len(products))
	for _, product := range products {
		id := strings.TrimSpace(product.ID)
		if id == "" {
			return errors.New("product repository: product id is required")
		}
		docs[id] = toProductDocument(product)
	}
	return r.base.SetMany(ctx, docs)
}

// ListAll returns every catalog product ordered by document ID.
func (r *ProductRepository) ListAll(ctx context.Context) ([]domain.Product, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("product repository not initialised")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy(firestore.DocumentID, firestore.Asc)
	})
	if err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		products = append(products, fromProductDocument(doc.ID, doc.Data))
	}
	return products, nil
}

// GetByID fetches one product by its document ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (domain.Product, error) {
	if r == nil || r.base == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}

	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	return fromProductDocument(doc.ID, doc.Data), nil
}

// Create inserts a new product, failing when the document already exists.
func (r *ProductRepository) Create(ctx context.Context, product domain.Product) error {
	if r == nil || r.base == nil {
		return errors.New("product repository not initialised")
	}

	ref, err := r.base.DocumentRef(ctx, product.ID)
	if err != nil {
		return err
	}
	if _, err := ref.Create(ctx, toProductDocument(product)); err != nil {
		return pfirestore.WrapError("products.create", err)
	}
	return nil
}

// Update overwrites an existing product, failing when it does not exist.
func (r *ProductRepository) Update(ctx context.Context, product domain.Product) error {
	if r == nil || r.base == nil {
		return errors.New("product repository not initialised")
	}

	_, err := r.base.Set(ctx, product.ID, toProductDocument(product))
	return err
}

// Delete removes the product by ID.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	if r == nil || r.base == nil {
		return errors.New("product repository not initialised")
	}
	return r.base.Delete(ctx, id, firestore.Exists)
}

func toProductDocument(product domain.Product) productDocument {
	return productDocument{
		Name:        product.Name,
		Description: product.Description,
		PriceCents:  product.PriceCents,
		Image:       product.Image,
		Category:    product.Category,
		InStock:     product.InStock,
		Rating:      product.Rating,
		Reviews:     product.Reviews,
		DiscountPct: product.DiscountPct,
	}
}

func fromProductDocument(id string, doc productDocument) domain.Product {
	return domain.Product{
		ID:          id,
		Name:        doc.Name,
		Description: doc.Description,
		PriceCents:  doc.PriceCents,
		Image:       doc.Image,
		Category:    doc.Category,
		InStock:     doc.InStock,
		Rating:      doc.Rating,
		Reviews:     doc.Reviews,
		DiscountPct: doc.DiscountPct,
	}
}
