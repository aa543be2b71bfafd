package controller

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"smarthub_v1_202601/internal/middleware"
	"smarthub_v1_202601/internal/model"
	"smarthub_v1_202601/internal/service"
)

// 单张商品图上限 5MB
const maxImageSize = 5 << 20

// ProductController 商品控制器
type ProductController struct {
	shopSvc    *service.ShopService
	svc        *service.ProductService
	storageSvc *service.StorageService
}

// NewProductController 创建商品控制器
func NewProductController(shopSvc *service.ShopService, svc *service.ProductService) *ProductController {
	return &ProductController{shopSvc: shopSvc, svc: svc}
}

// SetStorageService 设置存储服务（可选注入）
func (c *ProductController) SetStorageService(svc *service.StorageService) {
	c.storageSvc = svc
}

func (c *ProductController) resolveShop(ctx *gin.Context) (*model.Shop, bool) {
	shop, err := c.shopSvc.ResolveShop(ctx, middleware.GetIdentity(ctx), middleware.GetShopHint(ctx))
	if err != nil {
		if errors.Is(err, service.ErrShopNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "店铺解析失败"})
		}
		return nil, false
	}
	return shop, true
}

// ==================== 请求结构 ====================

type batchCreateRequest struct {
	Products []service.ProductInput `json:"products" binding:"required"`
}

type updateProductRequest struct {
	ID          int64       `json:"id" binding:"required"`
	Name        *string     `json:"name"`
	Description *string     `json:"description"`
	Price       interface{} `json:"price"`
	Stock       *int        `json:"stock"`
}

type deleteProductRequest struct {
	ID int64 `json:"id"`
}

// ==================== 商品 CRUD ====================

// List 商品列表
// GET /api/shop/products
func (c *ProductController) List(ctx *gin.Context) {
	shop, ok := c.resolveShop(ctx)
	if !ok {
		return
	}

	products, total, err := c.svc.List(ctx, shop.ID, queryInt(ctx, "page", 1), queryInt(ctx, "page_size", 50))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "商品查询失败"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"products": products,
		"total":    total,
	})
}

// BatchCreate 批量建品
// 缺名字或价格解析失败的条目静默跳过，成功 1 条以上即置 setup_completed
// POST /api/shop/products
func (c *ProductController) BatchCreate(ctx *gin.Context) {
	shop, ok := c.resolveShop(ctx)
	if !ok {
		return
	}

	var req batchCreateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	products, err := c.svc.BatchCreate(ctx, shop.ID, req.Products)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "商品创建失败"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"products": products,
		"message":  fmt.Sprintf("成功创建 %d 个商品", len(products)),
	})
}

// Update 更新商品，先核归属再写
// PUT /api/shop/products
func (c *ProductController) Update(ctx *gin.Context) {
	shop, ok := c.resolveShop(ctx)
	if !ok {
		return
	}

	var req updateProductRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Price != nil {
		cents, pok := service.CoercePriceCents(req.Price)
		if !pok {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "价格格式不正确"})
			return
		}
		fields["price_amount"] = cents
	}
	if req.Stock != nil {
		fields["stock"] = *req.Stock
	}
	if len(fields) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "没有可更新的字段"})
		return
	}

	product, err := c.svc.Update(ctx, req.ID, shop.ID, fields)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "商品更新失败"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"product": product,
		"message": "商品已更新",
	})
}

// Delete 删除商品（软删除）
// DELETE /api/shop/products  body {id} 或 ?id=
func (c *ProductController) Delete(ctx *gin.Context) {
	shop, ok := c.resolveShop(ctx)
	if !ok {
		return
	}

	var req deleteProductRequest
	_ = ctx.ShouldBindJSON(&req)
	if req.ID == 0 {
		req.ID, _ = strconv.ParseInt(ctx.Query("id"), 10, 64)
	}
	if req.ID == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "缺少商品ID"})
		return
	}

	if err := c.svc.Delete(ctx, req.ID, shop.ID); err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "商品删除失败"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "商品已删除"})
}

// ==================== 图片上传 ====================

// UploadImage 上传商品图，回发公开访问 URL
// POST /api/shop/products/images
func (c *ProductController) UploadImage(ctx *gin.Context) {
	if _, ok := c.resolveShop(ctx); !ok {
		return
	}

	if c.storageSvc == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "存储服务未配置"})
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "缺少上传文件"})
		return
	}
	if fileHeader.Size > maxImageSize {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "文件超过 5MB 限制"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "文件读取失败"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "文件读取失败"})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	url, err := c.storageSvc.Upload(ctx, data, fileHeader.Filename, contentType)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "文件上传失败"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data":    gin.H{"url": url},
		"message": "上传成功",
	})
}
