package httputil

import "github.com/gin-gonic/gin"

// IHttpHandler is a routable handler group. Root names the path prefix
// and SetRoutes attaches the handler's routes under the public, private
// and admin groups.
type IHttpHandler interface {
	Root() string
	SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup)
}
