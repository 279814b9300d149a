// Package fixtures generates the deterministic demo data the storefront
// seeds itself with: a randomised product catalog and per-user order history.
package fixtures

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/marketbay/api/internal/domain"
)

var categories = []string{
	"electronics",
	"clothing",
	"home",
	"beauty",
	"sports",
	"books",
	"toys",
	"automotive",
	"garden",
	"food",
}

var adjectives = []string{
	"Premium", "Luxury", "Essential", "Classic", "Modern",
	"Professional", "Elegant", "Durable", "Compact", "Advanced",
	"Smart", "Portable", "Wireless", "Digital", "Ergonomic",
}

var productTypes = map[string][]string{
	"electronics": {"Smartphone", "Laptop", "Headphones", "Smartwatch", "Camera", "Tablet", "Speaker", "Monitor", "Keyboard", "Mouse"},
	"clothing":    {"T-Shirt", "Jeans", "Dress", "Jacket", "Sweater", "Shoes", "Socks", "Hat", "Scarf", "Gloves"},
	"home":        {"Lamp", "Pillow", "Blanket", "Vase", "Clock", "Mirror", "Rug", "Chair", "Table", "Cabinet"},
	"beauty":      {"Moisturizer", "Shampoo", "Perfume", "Lipstick", "Foundation", "Serum", "Mask", "Cream", "Lotion", "Oil"},
	"sports":      {"Ball", "Racket", "Gloves", "Shoes", "Bag", "Mat", "Weights", "Band", "Bottle", "Watch"},
	"books":       {"Novel", "Cookbook", "Biography", "Textbook", "Magazine", "Comic", "Journal", "Guide", "Manual", "Dictionary"},
	"toys":        {"Puzzle", "Doll", "Car", "Block", "Game", "Robot", "Plush", "Board Game", "Card Game", "Action Figure"},
	"automotive":  {"Charger", "Mount", "Cover", "Light", "Mat", "Tool", "Cleaner", "Air Freshener", "Oil", "Filter"},
	"garden":      {"Plant", "Pot", "Tool Set", "Seeds", "Soil", "Gloves", "Hose", "Fertilizer", "Light", "Decoration"},
	"food":        {"Snack", "Drink", "Sauce", "Spice", "Mix", "Bar", "Chips", "Nuts", "Candy", "Coffee"},
}

var descriptions = map[string]string{
	"electronics": "High-quality electronic device with advanced features and reliable performance.",
	"clothing":    "Comfortable and stylish clothing made from premium materials.",
	"home":        "Beautiful home decor item that adds elegance to any room.",
	"beauty":      "Premium beauty product for your daily skincare routine.",
	"sports":      "Professional-grade sports equipment for optimal performance.",
	"books":       "Engaging and informative reading material for all ages.",
	"toys":        "Fun and educational toy that provides hours of entertainment.",
	"automotive":  "Essential automotive accessory for your vehicle.",
	"garden":      "High-quality gardening product for your outdoor space.",
	"food":        "Delicious and healthy food item made with natural ingredients.",
}

var imageURLs = map[string][]string{
	"electronics": {
		"https://images.pexels.com/photos/3394650/pexels-photo-3394650.jpeg",
		"https://images.pexels.com/photos/4482891/pexels-photo-4482891.jpeg",
		"https://images.pexels.com/photos/1706694/pexels-photo-1706694.jpeg",
	},
	"clothing": {
		"https://images.pexels.com/photos/5698851/pexels-photo-5698851.jpeg",
		"https://images.pexels.com/photos/934070/pexels-photo-934070.jpeg",
		"https://images.pexels.com/photos/1306246/pexels-photo-1306246.jpeg",
	},
	"home": {
		"https://images.pexels.com/photos/1457842/pexels-photo-1457842.jpeg",
		"https://images.pexels.com/photos/1566308/pexels-photo-1566308.jpeg",
		"https://images.pexels.com/photos/1036936/pexels-photo-1036936.jpeg",
	},
	"beauty": {
		"https://images.pexels.com/photos/3785147/pexels-photo-3785147.jpeg",
		"https://images.pexels.com/photos/3785170/pexels-photo-3785170.jpeg",
		"https://images.pexels.com/photos/3785156/pexels-photo-3785156.jpeg",
	},
	"sports": {
		"https://images.pexels.com/photos/4056531/pexels-photo-4056531.jpeg",
		"https://images.pexels.com/photos/4162579/pexels-photo-4162579.jpeg",
		"https://images.pexels.com/photos/4162577/pexels-photo-4162577.jpeg",
	},
	"books": {
		"https://images.pexels.com/photos/1907785/pexels-photo-1907785.jpeg",
		"https://images.pexels.com/photos/1907784/pexels-photo-1907784.jpeg",
		"https://images.pexels.com/photos/1907783/pexels-photo-1907783.jpeg",
	},
	"toys": {
		"https://images.pexels.com/photos/163696/toy-car-toy-box-mini-163696.jpeg",
		"https://images.pexels.com/photos/163695/toy-car-toy-box-mini-163695.jpeg",
		"https://images.pexels.com/photos/163694/toy-car-toy-box-mini-163694.jpeg",
	},
	"automotive": {
		"https://images.pexels.com/photos/1149831/pexels-photo-1149831.jpeg",
		"https://images.pexels.com/photos/1149830/pexels-photo-1149830.jpeg",
		"https://images.pexels.com/photos/1149829/pexels-photo-1149829.jpeg",
	},
	"garden": {
		"https://images.pexels.com/photos/1470171/pexels-photo-1470171.jpeg",
		"https://images.pexels.com/photos/1470170/pexels-photo-1470170.jpeg",
		"https://images.pexels.com/photos/1470169/pexels-photo-1470169.jpeg",
	},
	"food": {
		"https://images.pexels.com/photos/1640777/pexels-photo-1640777.jpeg",
		"https://images.pexels.com/photos/1640776/pexels-photo-1640776.jpeg",
		"https://images.pexels.com/photos/1640775/pexels-photo-1640775.jpeg",
	},
}

const (
	minPriceCents = 199
	maxPriceCents = 99999
	minReviews    = 5
	maxReviews    = 1000
	minDiscount   = 5
	maxDiscount   = 70
)

// ProductGenerator produces randomised demo products with the storefront's
// category, naming, and pricing distributions.
type ProductGenerator struct {
	rng *rand.Rand
}

// NewProductGenerator returns a generator seeded for reproducible output.
func NewProductGenerator(seed int64) *ProductGenerator {
	return &ProductGenerator{rng: rand.New(rand.NewSource(seed))}
}

// Products generates count products with IDs prod_1 through prod_<count>.
func (g *ProductGenerator) Products(count int) []domain.Product {
	if count <= 0 {
		return []domain.Product{}
	}

	products := make([]domain.Product, 0, count)
	for i := 0; i < count; i++ {
		category := pick(g.rng, categories)
		name := fmt.Sprintf("%s %s", pick(g.rng, adjectives), pick(g.rng, productTypes[category]))

		products = append(products, domain.Product{
			ID:          fmt.Sprintf("prod_%d", i+1),
			Name:        name,
			Description: descriptions[category],
			PriceCents:  g.priceCents(),
			Image:       pick(g.rng, imageURLs[category]),
			Category:    category,
			InStock:     g.rng.Float64() > 0.1,
			Rating:      g.rating(),
			Reviews:     minReviews + g.rng.Intn(maxReviews-minReviews),
			DiscountPct: g.discount(),
		})
	}
	return products
}

func (g *ProductGenerator) priceCents() int64 {
	return int64(minPriceCents + g.rng.Intn(maxPriceCents-minPriceCents+1))
}

// rating is uniform in [3.5, 5.0], rounded to one decimal place.
func (g *ProductGenerator) rating() float64 {
	raw := 3.5 + g.rng.Float64()*1.5
	return math.Round(raw*10) / 10
}

// discount is zero for most products; roughly a third carry 5-69 percent off.
func (g *ProductGenerator) discount() int {
	if g.rng.Float64() >= 0.3 {
		return 0
	}
	return minDiscount + g.rng.Intn(maxDiscount-minDiscount)
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.Intn(len(values))]
}
