package model

// Details is the type-specific record attached 1:1 to an experience.
// Exactly one of *RestaurantDetails, *HomeMealDetails or *WishlistDetails,
// and its Kind always equals the owning experience's Type.
type Details interface {
	Kind() ExperienceType
	isDetails()
}

// RestaurantDetails belongs to experiences of TypeRestaurant.
type RestaurantDetails struct {
	Ratings       Ratings
	DishesOrdered string
	Cost          *float64
}

func (*RestaurantDetails) Kind() ExperienceType { return TypeRestaurant }
func (*RestaurantDetails) isDetails()           {}

// HomeMealDetails belongs to experiences of TypeHomeMeal.
type HomeMealDetails struct {
	Cuisine         string
	Ingredients     []string
	Instructions    string
	CookTimeMinutes *int
	Difficulty      Difficulty
	Servings        *int
	Ratings         Ratings
	Source          string
}

func (*HomeMealDetails) Kind() ExperienceType { return TypeHomeMeal }
func (*HomeMealDetails) isDetails()           {}

// WishlistDetails belongs to experiences of TypeWishlist.
type WishlistDetails struct {
	WishlistType WishlistType
	Cuisine      string
	Priority     Priority
	Source       string
	URL          string
}

func (*WishlistDetails) Kind() ExperienceType { return TypeWishlist }
func (*WishlistDetails) isDetails()           {}

// EmptyDetails returns a blank detail record for the given type.
func EmptyDetails(t ExperienceType) Details {
	switch t {
	case TypeRestaurant:
		return &RestaurantDetails{}
	case TypeHomeMeal:
		return &HomeMealDetails{}
	case TypeWishlist:
		return &WishlistDetails{WishlistType: WishlistRestaurant, Priority: PriorityMedium}
	default:
		return nil
	}
}
