package utils

import (
	"os"
	"strconv"
	"time"
)

// GetCacheLifespan reads CACHE_LIFESPAN in hours (default 1).
func GetCacheLifespan() time.Duration {
	lifespan, err := strconv.Atoi(os.Getenv("CACHE_LIFESPAN"))
	if err != nil || lifespan <= 0 {
		lifespan = 1
	}
	return time.Duration(lifespan) * time.Hour
}

// BusinessCacheKey builds "<TypeName>:<businessId>" keys for per-business cached lists.
func BusinessCacheKey(typeName string, businessId string) string {
	return typeName + ":" + businessId
}
