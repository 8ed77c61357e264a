package routes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"coco-admissions-platform/internal/config"
	"coco-admissions-platform/internal/database"
	"coco-admissions-platform/internal/logger"
	"coco-admissions-platform/middleware"
	"coco-admissions-platform/services"
	"coco-admissions-platform/utils"
)

// queryParamFields maps incoming query parameter names to the metadata
// fields they filter on. Parameters absent from the request are simply not
// constrained.
var queryParamFields = map[string]string{
	"country_name":            "country_name",
	"organization_name":       "organization_name",
	"state_province_name":     "state_province_name",
	"department_name":         "department_name",
	"college_name":            "college_name",
	"city":                    "city",
	"ielts_score":             "IELTS",
	"cgpa":                    "CGPA",
	"TOEFL":                   "TOEFL",
	"DUOLINGO":                "DUOLINGO",
	"GRE":                     "GRE",
	"application_fee":         "application_fee",
	"applicationDeadline":     "application_end_date",
	"scholarshipAvailability": "funding_available",
	"funding_type":            "funding_type",
	"funding_opportunity_for": "funding_opportunity_for",
}

// SetupRecommendationRoutes registers the ingestion trigger and the
// recommendation search endpoint. Both require an authenticated user.
func SetupRecommendationRoutes(
	router *gin.Engine,
	cfg *config.Config,
	rdb *redis.Client,
	catalog database.Catalog,
	ingestor *services.Ingestor,
	recommender *services.Recommender,
) {
	group := router.Group("/api/recommendations")
	group.Use(middleware.RequireAuth(rdb))
	group.Use(middleware.RoleBasedRateLimit(rdb, cfg))

	// Full rebuild of every vector collection from the catalog.
	group.GET("/embed", func(c *gin.Context) {
		ctx, cancel := utils.WithIngestTimeout(c.Request.Context())
		defer cancel()

		reports, err := ingestor.IngestAll(ctx)
		if err != nil {
			logger.Error("ingestion run finished with errors", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "ingestion_failed",
				"message": err.Error(),
				"reports": reports,
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "reports": reports})
	})

	group.GET("", func(c *gin.Context) {
		userID, err := strconv.Atoi(c.GetString("user_id"))
		if err != nil {
			utils.RespondWithUnauthorized(c, "invalid user identity")
			return
		}

		filters := collectFilters(c)
		searchType := c.DefaultQuery("search_type", "professors")

		var document string
		results := make([]interface{}, 0)
		switch searchType {
		case "universities":
			doc, hits, rerr := recommender.RecommendPrograms(c.Request.Context(), userID, filters)
			err, document = rerr, doc
			for _, hit := range hits {
				results = append(results, hit)
			}
		case "professors":
			doc, hits, rerr := recommender.RecommendResearchers(c.Request.Context(), userID, filters)
			err, document = rerr, doc
			for _, hit := range hits {
				results = append(results, hit)
			}
		default:
			utils.RespondWithBadRequest(c, "search_type must be universities or professors", nil)
			return
		}

		if err != nil {
			if errors.Is(err, services.ErrRecommendationUnavailable) {
				utils.RespondWithInsufficientProfile(c, "profile has not been ingested yet")
				return
			}
			logger.Error("recommendation query failed", "search_type", searchType, "error", err)
			utils.RespondWithInternalError(c, "recommendation query failed", nil)
			return
		}

		response := gin.H{
			"user":         nil,
			"sop_text":     "",
			"resume_text":  "",
			"universities": results,
		}
		if searchType == "professors" {
			resumeText, sopText := splitProfileDocument(document)
			response["sop_text"] = sopText
			response["resume_text"] = resumeText
			if user, uerr := catalog.UserByID(c.Request.Context(), userID); uerr == nil && user != nil {
				response["user"] = gin.H{
					"id":   user.UserID,
					"name": user.FirstName + " " + user.LastName,
				}
			}
		}
		c.JSON(http.StatusOK, response)
	})
}

// collectFilters reads the known query parameters into a filter set.
// Repeated parameters become list filters; the literal "null" means the
// caller explicitly cleared the filter.
func collectFilters(c *gin.Context) services.Filters {
	filters := services.Filters{}
	for param, field := range queryParamFields {
		values := c.QueryArray(param)
		var kept []string
		for _, v := range values {
			if v == "" || v == "null" {
				continue
			}
			kept = append(kept, v)
		}
		switch len(kept) {
		case 0:
		case 1:
			filters[field] = kept[0]
		default:
			filters[field] = kept
		}
	}
	return filters
}

// splitProfileDocument recovers the resume and SOP halves of the stored
// profile document.
func splitProfileDocument(document string) (resumeText, sopText string) {
	half := len(document) / 2
	return document[:half], document[half:]
}
