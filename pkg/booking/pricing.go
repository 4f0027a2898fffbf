package booking

import "glowlink/pkg/catalog"

// DeliveryFee is the fee charged for a delivery method.
func DeliveryFee(method DeliveryMethod, feeCents int64) int64 {
	if method == DeliveryMethodDelivery {
		return feeCents
	}
	return 0
}

// ComputeTotal returns price*quantity plus the delivery fee, in cents. A nil item counts as price 0.
func ComputeTotal(item *catalog.Item, quantity int, method DeliveryMethod, feeCents int64) int64 {
	var price int64
	if item != nil {
		price = item.PriceCents
	}
	return price*int64(quantity) + DeliveryFee(method, feeCents)
}
